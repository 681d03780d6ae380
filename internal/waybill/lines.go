package waybill

import "strings"

// segmentLines splits raw OCR text into trimmed, non-empty lines. Extractors
// that need line-relative context (labels above values, plate rows) work on
// this slice; the quantity and date cascades scan the raw text instead so
// they can match across line breaks.
func segmentLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// stripLeadingPunct removes leading colon, dot and whitespace runs from a
// candidate value line (": LİDER KUMLAMA" -> "LİDER KUMLAMA").
func stripLeadingPunct(s string) string {
	return strings.TrimSpace(strings.TrimLeft(s, ":. \t\r\n"))
}
