package waybill

import (
	"regexp"
	"strings"
)

// Plate extraction tries an ordered list of patterns against the whole text.
// The labeled form wins over the bare shape because an unlabeled digit/letter
// run elsewhere in the document is a likelier false positive.
var platePatterns = []*regexp.Regexp{
	// "PLAKA: 34 BNU 389", "PLATE NO. 35ABC123", "Arac No: 06 AB 1234"
	regexp.MustCompile(`(?i)(?:PLAKA|PLATE|Arac)\s*(?:NO|NUMBER|NUM)?\s*[.:]*\s*([0-9]{2}\s*[A-Z]{1,5}\s*[0-9]{2,5})`),
	// bare plate-shaped token anywhere
	regexp.MustCompile(`(?i)\b([0-9]{2}[A-Z]{1,5}[0-9]{2,5})\b`),
}

// standardPlate matches the cleaned Turkish plate shape for canonical
// re-spacing: two digits, letters, digits.
var standardPlate = regexp.MustCompile(`^(\d{2})([A-Z]+)(\d+)$`)

// extractPlate fills data.PlateNumber from the first matching pattern.
// Matches are uppercased and stripped of whitespace; a standard-shaped plate
// is re-spaced into "35 ABC 123", anything else is kept cleaned as-is so a
// malformed OCR read still surfaces instead of being dropped.
func extractPlate(text string, data *Fields) {
	for _, pattern := range platePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ToUpper(removeWhitespace(m[1]))
		if parts := standardPlate.FindStringSubmatch(raw); parts != nil {
			data.PlateNumber = parts[1] + " " + parts[2] + " " + parts[3]
		} else {
			data.PlateNumber = raw
		}
		return
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func removeWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, "")
}
