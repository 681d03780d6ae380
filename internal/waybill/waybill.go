// Package waybill extracts structured data from the OCR text of photographed
// delivery slips (irsaliye).
//
// Field workers photograph material waybills at construction sites. The
// upstream recognition provider (see internal/ocr) turns the photo into a
// block of text plus per-token confidence scores; this package turns that
// text into a partially filled record: vehicle plate, material type,
// quantity, unit, supplier name, ticket number and date.
//
// The extraction is a pipeline of independent per-field extractors run in a
// fixed order over the same segmented lines:
//
//  1. Line segmentation
//  2. Plate number (labeled regex, then bare plate shape)
//  3. Material type and supplier name (per-line hybrid scan + block fallback)
//  4. Ticket number (labeled, then positional relative to the plate line)
//  5. Quantity (regex cascade with unit-aware normalization)
//  6. Date (regex cascade with OCR digit repair)
//  7. Validation/correction pass
//
// Extraction is a pure function of its input: no I/O, no state across calls,
// safe for concurrent use. An extractor that finds nothing leaves its field
// empty; malformed input degrades to fewer populated fields, never to an
// error or panic.
package waybill

import "math"

// Fields holds the structured values extracted from a waybill. An empty
// string means the field was not found; partial results are the expected
// common case for noisy OCR input.
type Fields struct {
	// PlateNumber is the vehicle plate, normalized to "35 ABC 123" form when
	// the standard two-digit/letters/digits shape is recognized.
	PlateNumber string `json:"plateNumber,omitempty"`

	// MaterialType is the free-text material description with label words
	// stripped (e.g. "MIL KUM", "HAFRIYAT").
	MaterialType string `json:"materialType,omitempty"`

	// Quantity is the numeric amount as a string, decimal separator
	// normalized to "." and thousands separators removed.
	Quantity string `json:"quantity,omitempty"`

	// Unit is the normalized unit: TON, KG, ADET, M3 or the literal unit
	// text when it matches none of those.
	Unit string `json:"unit,omitempty"`

	// SupplierName is the free-text company name of the supplier.
	SupplierName string `json:"supplierName,omitempty"`

	// TicketNumber is the waybill/weighbridge serial number.
	TicketNumber string `json:"ticketNumber,omitempty"`

	// Date is the waybill date in ISO YYYY-MM-DD form.
	Date string `json:"date,omitempty"`
}

// TokenConfidence is a per-token recognition score reported by the OCR
// provider, in the range [0,1].
type TokenConfidence struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of a full extraction pass.
type Result struct {
	// Text is the raw recognized text, passed through unchanged.
	Text string `json:"text"`

	// Confidence is the average token confidence as a rounded percentage
	// 0-100. The first token is excluded: OCR engines report it as the
	// aggregate full-text region, not a word. Zero when no scored tokens
	// remain.
	Confidence int `json:"confidence"`

	// Data holds the extracted field values.
	Data Fields `json:"data"`
}

// Extract runs the full extraction pipeline over recognized text. It is
// deterministic and never fails: unrecognizable input yields a Result with
// empty fields.
func Extract(text string, tokens []TokenConfidence) Result {
	lines := segmentLines(text)

	var data Fields
	extractPlate(text, &data)
	scanLines(lines, &data)
	inferTicketFromPlate(lines, &data)
	extractQuantity(text, &data)
	extractDate(text, &data)
	data = Validate(data)

	return Result{
		Text:       text,
		Confidence: averageConfidence(tokens),
		Data:       data,
	}
}

// averageConfidence computes the rounded percentage mean of token scores,
// skipping the first token (the full-block aggregate annotation).
func averageConfidence(tokens []TokenConfidence) int {
	var total float64
	var count int
	for i := 1; i < len(tokens); i++ {
		if tokens[i].Confidence > 0 {
			total += tokens[i].Confidence
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(total / float64(count) * 100))
}
