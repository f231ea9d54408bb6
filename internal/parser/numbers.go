package parser

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CleanNumber normalizes a locale-ambiguous numeric token from the legacy
// report into a decimal. Comma and period are disambiguated by position:
// when both appear, the rightmost one is the decimal separator and the
// other is stripped as a thousands marker; a lone comma is decimal.
//
//	"1.234,56" → 1234.56
//	"1,234.56" → 1234.56
//	"1234,56"  → 1234.56
//
// Anything unparseable after cleaning yields zero.
func CleanNumber(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "$ ")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// Lone comma is the decimal separator; any earlier commas are
		// thousands markers.
		s = s[:lastComma] + "." + s[lastComma+1:]
		s = strings.Replace(s, ",", "", -1)
	case strings.Count(s, ".") > 1:
		// Multiple periods: the last one is decimal, the rest thousands.
		s = strings.Replace(s, ".", "", strings.Count(s, ".")-1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
