package waybill

import (
	"regexp"
	"strings"
)

// Quantity cascade, evaluated in order against the full text so a value can
// sit on the line after its label. The weighbridge ("Tartı") form is the
// strongest signal, the bare number+unit pair the weakest.
var quantityPatterns = []*regexp.Regexp{
	// "TARTI: 47.100 Kg" weighing slips
	regexp.MustCompile(`(?i)(?:Tartı|Tarti)\s*[.:]*\s*([0-9.,]+)\s*(Kg|Ton)`),
	// general quantity labels with an optional unit
	regexp.MustCompile(`(?i)(?:MİKTAR|MIKTAR|QUANTITY|NET|AGIRLIK|ADET)\s*[.:]*\s*([0-9.,]+)\s*(TON|M3|M³|METRE|METER|LİTRE|LITER|ADET|KG)?`),
	// unit-first layouts: "ADET" label with the number on the next line
	regexp.MustCompile(`(?i)ADET\s*[.:]*\s*\n?\s*([0-9.,]+)`),
	// bare "<number> <unit>" anywhere, last resort
	regexp.MustCompile(`(?i)([0-9.,]+)\s+(Kg|Ton|Adet)`),
}

var adetWord = regexp.MustCompile(`(?i)ADET`)

var unitSpelling = strings.NewReplacer("M³", "M3", "METREKÜP", "M3", "K8", "KG")

// extractQuantity fills Quantity and Unit from the first pattern that yields
// a usable number, then applies the locale normalization rules: Turkish
// documents use "." as a thousands separator and "," as the decimal point,
// and OCR drops or confuses either freely.
func extractQuantity(text string, data *Fields) {
	for _, pattern := range quantityPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		rawQty := m[1]
		unit := "ADET"
		if len(m) > 2 && m[2] != "" {
			unit = m[2]
		}
		unit = strings.ToUpper(unit)

		// lone punctuation is a regex artifact, not a value
		if rawQty == "." || rawQty == "," {
			continue
		}

		if adetWord.MatchString(unit) || adetWord.MatchString(m[0]) {
			// Piece counts have no decimals: "4.320 Adet" is 4320 with a
			// thousands dot, not four-point-something.
			if hasThousandsDot(rawQty) {
				rawQty = strings.Replace(rawQty, ".", "", 1)
			}
			unit = "ADET"
		} else if unit == "KG" && strings.ContainsAny(rawQty, ".,") {
			// Large kilogram readings are thousands-separated, not decimal:
			// "47.100 Kg" means 47100. Short ones keep a decimal comma.
			clean := strings.NewReplacer(".", "", ",", "").Replace(rawQty)
			if len(clean) >= 5 {
				rawQty = clean
			} else {
				rawQty = strings.Replace(rawQty, ",", ".", 1)
			}
		} else {
			rawQty = strings.Replace(rawQty, ",", ".", 1)
		}

		data.Quantity = rawQty
		data.Unit = unitSpelling.Replace(unit)
		return
	}
}

// hasThousandsDot reports whether the number carries a "." followed by
// exactly three digits, the Turkish thousands-separator shape.
func hasThousandsDot(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) > 1 && len(parts[1]) == 3
}
