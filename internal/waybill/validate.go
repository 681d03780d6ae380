package waybill

import (
	"regexp"
	"strings"
)

var nonNumeric = regexp.MustCompile(`[^0-9.,]`)

// Validate applies the post-extraction correction pass over assembled
// fields. A regex can legitimately match and still deliver a degenerate
// number (stray currency signs, a dangling separator); those are scrubbed
// here, and a quantity that reduces to nothing reverts to absent rather than
// propagating garbage. The pass is idempotent: applying it to its own output
// changes nothing.
func Validate(data Fields) Fields {
	corrected := data
	if corrected.Quantity == "" {
		return corrected
	}

	qty := nonNumeric.ReplaceAllString(corrected.Quantity, "")
	if strings.HasSuffix(qty, ".") || strings.HasSuffix(qty, ",") {
		qty = qty[:len(qty)-1]
	}
	if qty == "" || qty == "." || qty == "," {
		corrected.Quantity = ""
		return corrected
	}
	corrected.Quantity = qty

	// Second defense against thousands separators surviving into a count.
	for corrected.Unit == "ADET" && hasThousandsDot(corrected.Quantity) {
		corrected.Quantity = strings.Replace(corrected.Quantity, ".", "", 1)
	}
	return corrected
}
