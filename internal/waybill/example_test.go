package waybill_test

import (
	"fmt"

	"irsaliye/internal/waybill"
)

// Example demonstrates extracting fields from recognized waybill text.
func Example() {
	text := "SEVK İRSALİYESİ\n" +
		"PLAKA: 34 BNU 389\n" +
		"FİŞ NO: 12220\n" +
		"TARTI: 47.100 Kg\n" +
		"TARİH: 06/02/2026"

	tokens := []waybill.TokenConfidence{
		{Text: text, Confidence: 0.97},
		{Text: "PLAKA", Confidence: 0.99},
		{Text: "34", Confidence: 0.95},
	}

	result := waybill.Extract(text, tokens)

	fmt.Println(result.Data.PlateNumber)
	fmt.Println(result.Data.Quantity, result.Data.Unit)
	fmt.Println(result.Data.Date)
	fmt.Println(result.Confidence)
	// Output:
	// 34 BNU 389
	// 47100 KG
	// 2026-02-06
	// 97
}
