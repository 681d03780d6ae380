package waybill

import (
	"regexp"
	"strings"
)

var allDigits = regexp.MustCompile(`^\d+$`)

// inferTicketFromPlate recovers the ticket number positionally when no
// labeled form was found. Tabular waybills frequently print a row-sequence
// number directly above the vehicle row, so the line preceding the plate
// line is taken when it is purely digits and short enough to be a serial.
func inferTicketFromPlate(lines []string, data *Fields) {
	if data.TicketNumber != "" || data.PlateNumber == "" {
		return
	}

	cleanedPlate := strings.ToUpper(removeWhitespace(data.PlateNumber))
	plateLine := -1
	for i, l := range lines {
		if strings.Contains(strings.ToUpper(removeWhitespace(l)), cleanedPlate) {
			plateLine = i
			break
		}
	}
	if plateLine <= 0 {
		return
	}

	prev := strings.TrimSpace(lines[plateLine-1])
	if allDigits.MatchString(prev) && len(prev) < 10 {
		data.TicketNumber = prev
	}
}
