package waybill

import (
	"regexp"
	"strings"
)

// Date cascade: a labeled date wins over a bare DD MM YYYY run anywhere in
// the text. The digit classes also admit O and Z, the two letters Vision
// most often reads in place of 0 and 2 on stamped dates.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:TARİH|TARIH|DATE|GİRİS|GIRIS)\s*[.:]*\s*([0-9OZ]{2})[\s./-]*([0-9OZ]{2})[\s./-]*([0-9OZ]{4})`),
	regexp.MustCompile(`([0-9OZ]{2})[\s./-]+([0-9OZ]{2})[\s./-]+([0-9OZ]{4})`),
}

var digitRepair = strings.NewReplacer("Z", "2", "O", "0")

// extractDate fills Date in ISO YYYY-MM-DD form from the first matching
// pattern. A year starting with "28" is rewritten to "20xx", a recurring
// misread of stamped twos. No calendar bounds check is applied: an
// out-of-range day or month passes through for downstream correction.
func extractDate(text string, data *Fields) {
	for _, pattern := range datePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		day := digitRepair.Replace(m[1])
		month := digitRepair.Replace(m[2])
		year := digitRepair.Replace(m[3])
		if strings.HasPrefix(year, "28") {
			year = "20" + year[2:]
		}
		data.Date = year + "-" + month + "-" + day
		return
	}
}
