package waybill

import (
	"regexp"
	"strings"
)

// Per-line detectors for the hybrid label/value analysis. Waybills come in
// two layouts: inline "MALZEME ADI: MIL KUM" pairs and columnar receipts
// where labels and values sit on separate lines. The per-line scan handles
// the inline cases; the block fallback below handles the columnar ones.
var (
	// "9-MUHTELIF KUM" style numbered line items that carry the material
	// directly in the row text.
	numberedItemLine = regexp.MustCompile(`(?i)^\d+[\s\-.]+[A-Z\s]+(?:MALZEME|KUM|MICIR)`)
	materialLabelIn  = regexp.MustCompile(`(?i)(ADI|CINSI|TIP)`)

	materialLabel = regexp.MustCompile(`(?i)(MALZEME|MATERIAL)\s*(ADI|CINS|TYPE)?`)
	supplierLabel = regexp.MustCompile(`(?i)(FİRMA|FIRMA|TEDARİKÇİ|SUPPLIER)\s*(ADI|NAME)?`)

	materialNextReject = regexp.MustCompile(`(?i)(MALZEME|ADI)`)
	supplierNextReject = regexp.MustCompile(`(?i)(MALZEME|ADRES|TEL)`)

	ticketLabelLine = regexp.MustCompile(`(?i)(FİŞ|FIS|NO|NUM)\s*[.:]*\s*\d+$`)
	trailingDigits  = regexp.MustCompile(`(\d+)$`)
	shortDigitLine  = regexp.MustCompile(`^\d{1,3}$`)

	leadingItemNumber = regexp.MustCompile(`^\d+[\s\-.]+`)
)

// scanLines runs the per-line material/supplier/ticket detectors, then the
// block-level fallback pass for fields the scan left unset or noisy.
func scanLines(lines []string, data *Fields) {
	for i, line := range lines {
		var nextLine string
		if i+1 < len(lines) {
			nextLine = lines[i+1]
		}

		scanMaterial(line, nextLine, data)
		scanSupplier(line, nextLine, data)

		// Labeled ticket number: "FİŞ NO: 12220", "KANTAR FIS NO. 482"
		if ticketLabelLine.MatchString(line) {
			if m := trailingDigits.FindStringSubmatch(line); m != nil {
				data.TicketNumber = m[1]
			}
		}
		// OCR sometimes splits the "NO" label and its value onto separate
		// lines; a short all-digit line directly under it is the ticket.
		if shortDigitLine.MatchString(line) && i > 0 && strings.Contains(strings.ToUpper(lines[i-1]), "NO") {
			data.TicketNumber = line
		}
	}

	fallbackSupplier(lines, data)
	fallbackMaterial(lines, data)

	// Final cleanup: a value that is still just a label word is worse than
	// no value at all.
	if data.MaterialType != "" && residualLabel.MatchString(data.MaterialType) {
		data.MaterialType = ""
	}
}

func scanMaterial(line, nextLine string, data *Fields) {
	switch {
	// Numbered line item with the material embedded in the row, unless the
	// row is actually a label ("1. Malzeme Adi ...").
	case numberedItemLine.MatchString(line) && !materialLabelIn.MatchString(line):
		data.MaterialType = strings.TrimSpace(leadingItemNumber.ReplaceAllString(line, ""))

	case materialLabel.MatchString(line):
		if strings.Contains(line, ":") {
			_, after, _ := strings.Cut(line, ":")
			if v := strings.TrimSpace(after); len(v) > 2 {
				data.MaterialType = v
			} else if nextLine != "" && !strings.Contains(nextLine, "İrsaliye") && !materialNextReject.MatchString(nextLine) {
				data.MaterialType = stripLeadingPunct(nextLine)
			}
		} else if strings.HasPrefix(strings.TrimSpace(nextLine), ":") {
			// a next line starting with ":" is unambiguously the value
			data.MaterialType = stripLeadingPunct(nextLine)
		}
		// A bare next line without a colon is NOT taken here: in columnar
		// receipts it is too often the wrong row. The ": value" fallback
		// below covers that layout reliably.
	}
}

func scanSupplier(line, nextLine string, data *Fields) {
	if !supplierLabel.MatchString(line) {
		return
	}
	if strings.Contains(line, ":") {
		_, after, _ := strings.Cut(line, ":")
		if v := strings.TrimSpace(after); len(v) > 2 {
			data.SupplierName = v
		} else if nextLine != "" && !strings.Contains(nextLine, "Malzeme") {
			data.SupplierName = stripLeadingPunct(nextLine)
		}
	} else if strings.HasPrefix(strings.TrimSpace(nextLine), ":") {
		data.SupplierName = stripLeadingPunct(nextLine)
	} else if nextLine != "" && !supplierNextReject.MatchString(nextLine) {
		data.SupplierName = strings.TrimSpace(nextLine)
	}
}

// Block-level fallbacks for columnar receipts.
var (
	companySuffix = regexp.MustCompile(`(?i)\s+(LTD|STI|AS|A\.S|A\.Ş|MUHENDISLIK|PROJE|INSAAT|YAPI|SANAYI|TICARET)\b`)

	residualLabel     = regexp.MustCompile(`(?i)^(Malzeme|Material|Cinsi|Tipi)`)
	materialLabelWord = regexp.MustCompile(`(?i)(MALZEME|MATERIAL|Adi|Cinsi)`)
	materialKeyword   = regexp.MustCompile(`(?i)(MALZEME|TUGLA|KUM|MICIR|CIMENTO|BETON|NAKLIYE|HAFRIYAT)`)
	materialExclude   = regexp.MustCompile(`(?i)(ADI|AD1|TYPE|CINSI|TONAJ|MIKTAR|TART)`)

	leadingNumbering = regexp.MustCompile(`^[\d\-.\s]+`)
)

// fallbackSupplier picks the first line carrying a company-suffix keyword
// (LTD, A.Ş, İNŞAAT, ...) when the label scan found nothing. Label lines
// containing the word "Firma" are skipped so we never re-capture the label
// itself.
func fallbackSupplier(lines []string, data *Fields) {
	if data.SupplierName != "" {
		return
	}
	for _, l := range lines {
		if companySuffix.MatchString(l) && !strings.Contains(l, "Firma") {
			data.SupplierName = stripLeadingPunct(l)
			return
		}
	}
}

// fallbackMaterial repairs a missing or label-contaminated material value.
// Colon-prefixed value lines (": TUGLA") are the most reliable signal in
// columnar receipts and are tried first; a commodity-keyword line is the
// last resort.
func fallbackMaterial(lines []string, data *Fields) {
	if data.MaterialType != "" && !materialLabelWord.MatchString(data.MaterialType) {
		return
	}

	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), ":") && len(l) > 5 &&
			!strings.Contains(l, "PROJE") && !strings.Contains(l, "Fiyat") {
			data.MaterialType = stripLeadingPunct(l)
			return
		}
	}

	for _, l := range lines {
		// Lines ending in "." are labels like "Malzeme Adı.." rather than
		// values, as are lines carrying label or quantity words.
		if materialKeyword.MatchString(l) && !materialExclude.MatchString(l) &&
			!strings.HasSuffix(strings.TrimSpace(l), ".") {
			data.MaterialType = strings.TrimSpace(leadingNumbering.ReplaceAllString(l, ""))
			return
		}
	}
}
