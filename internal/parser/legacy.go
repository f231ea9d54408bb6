package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Legacy fixed-format report parsing. The printer emits a columnar text
// document with labelled header fields, one item row per line, pagination
// and separator noise, and a totals block at the bottom.

var (
	legacyNumberRe = regexp.MustCompile(`(?i)n[úu]mero\s*:?\s*(\S+)`)
	legacyDateRe   = regexp.MustCompile(`(?i)fecha\s*:?\s*(.+?)\s*$`)

	// Item rows: ordinal, product code, description, quantity, unit price,
	// line subtotal, optional tax rate with trailing %/* markers. Column
	// widths drift between printer firmware versions, so the pattern only
	// relies on whitespace separation.
	legacyItemRe = regexp.MustCompile(
		`^\s*(\d{1,4})\s+(\S+)\s+(.+?)\s{2,}([\d.,]+)\s+([\d.,]+)\s+([\d.,]+)(?:\s+([\d.,]+)\s*%?\s*\*{0,2})?\s*$`)

	legacySeparatorRe  = regexp.MustCompile(`^[\s\-=_*.]*$`)
	legacyPaginationRe = regexp.MustCompile(`(?i)^\s*(?:p[áa]g(?:ina)?|hoja)\.?\s*\d+`)

	legacySubtotalRe = regexp.MustCompile(`(?i)sub\s*total`)
	legacyTaxRe      = regexp.MustCompile(`(?i)\biva\b`)
	legacyDiscountRe = regexp.MustCompile(`(?i)descuento`)
	legacyTotalRe    = regexp.MustCompile(`(?i)\btotal\b`)
	// "TOTAL CON RETENCION" style lines are a withholdings variant of the
	// grand total and must not be mistaken for it.
	legacyWithholdRe = regexp.MustCompile(`(?i)reten`)

	legacyNumericTokenRe = regexp.MustCompile(`\d[\d.,]*`)
)

// ParseLegacy parses the legacy columnar invoice report.
func ParseLegacy(content []byte) (*Document, error) {
	text := string(content)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	doc := &Document{}

	for _, line := range lines {
		if doc.Header.Number == "" {
			if m := legacyNumberRe.FindStringSubmatch(line); m != nil {
				doc.Header.Number = m[1]
				continue
			}
		}
		if doc.Header.Date == "" {
			if m := legacyDateRe.FindStringSubmatch(line); m != nil {
				doc.Header.Date = strings.TrimSpace(m[1])
				continue
			}
		}

		if legacySeparatorRe.MatchString(line) || legacyPaginationRe.MatchString(line) {
			continue
		}

		if m := legacyItemRe.FindStringSubmatch(line); m != nil {
			item := Item{
				ProductCode: m[2],
				Description: strings.TrimSpace(m[3]),
				Quantity:    CleanNumber(m[4]),
				UnitPrice:   CleanNumber(m[5]),
				Subtotal:    CleanNumber(m[6]),
			}
			if n, err := strconv.Atoi(m[1]); err == nil {
				item.LineNumber = &n
			}
			if m[7] != "" {
				rate := CleanNumber(m[7])
				item.TaxRate = &rate
			}
			doc.Items = append(doc.Items, item)
		}
	}

	if doc.Header.Number == "" {
		return nil, &ParseError{Reason: "legacy report has no invoice number"}
	}

	parseLegacyTotals(doc, lines)
	return doc, nil
}

// parseLegacyTotals scans the document bottom-up and stops once the four
// totals are found. Scanning upward keeps per-page subtotal lines from
// shadowing the final block.
func parseLegacyTotals(doc *Document, lines []string) {
	var haveTotal, haveSubtotal, haveTax, haveDiscount bool

	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if legacyItemRe.MatchString(line) {
			continue
		}
		tokens := legacyNumericTokenRe.FindAllString(line, -1)
		if len(tokens) == 0 {
			continue
		}
		value := CleanNumber(tokens[len(tokens)-1])

		switch {
		case !haveSubtotal && legacySubtotalRe.MatchString(line):
			doc.Totals.Subtotal = value
			haveSubtotal = true
		case !haveTax && legacyTaxRe.MatchString(line):
			doc.Totals.Tax = value
			haveTax = true
		case !haveDiscount && legacyDiscountRe.MatchString(line):
			doc.Totals.Discount = value
			haveDiscount = true
		case !haveTotal && legacyTotalRe.MatchString(line) &&
			!legacySubtotalRe.MatchString(line) && !legacyWithholdRe.MatchString(line):
			doc.Totals.Total = value
			haveTotal = true
		}

		if haveTotal && haveSubtotal && haveTax && haveDiscount {
			break
		}
	}

	if !haveTotal {
		doc.Totals.Total = doc.Totals.Subtotal.Add(doc.Totals.Tax).Sub(doc.Totals.Discount)
	}
}
