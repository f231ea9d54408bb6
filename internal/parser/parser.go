// Package parser turns raw invoice files into normalized documents.
//
// Two dialects are supported: the UBL 2.1 XML export of the fiscal printer
// and the legacy fixed-format text report. Both parsers share one output
// shape and one contract: they never panic on malformed input — anything
// structurally unrecoverable comes back as *ParseError so the ingestion
// pipeline can tell "bad document" apart from "bad I/O".
package parser

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ParseError marks a structurally unreadable document. The pipeline treats
// it as fatal for the file: skip, log, never retry automatically.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse: %s: %v", e.Reason, e.Err)
	}
	return "parse: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Header carries the document-level fields of a parsed invoice.
type Header struct {
	Number        string
	Currency      string
	Date          string // raw issue timestamp text as found in the document
	CustomerName  string
	CustomerTaxID string
	SupplierName  string
}

// Item is one invoice line. Unit, LineNumber and TaxRate are optional in
// both source dialects.
type Item struct {
	LineNumber  *int
	ProductCode string
	Description string
	Unit        *string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	TaxRate     *decimal.Decimal
	TaxAmount   decimal.Decimal
}

// Totals holds the document totals. When the source carries no explicit
// grand total, Total = Subtotal + Tax − Discount.
type Totals struct {
	Total    decimal.Decimal
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
}

// Document is the normalized parse result for both dialects.
type Document struct {
	Header Header
	Items  []Item
	Totals Totals
}

// Parse sniffs the dialect and dispatches to the matching parser.
// XML documents start with '<' (optionally behind a BOM or whitespace).
func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF}), " \t\r\n")
	if len(trimmed) == 0 {
		return nil, &ParseError{Reason: "empty document"}
	}
	if trimmed[0] == '<' {
		// The XML decoder rejects a leading BOM, so parse the trimmed bytes.
		return ParseUBL(trimmed)
	}
	return ParseLegacy(content)
}

// issuedAtFormats lists the timestamp layouts seen across both dialects:
// UBL date/date-time and the legacy report's "2023-Oct-05 3:04 PM" style.
var issuedAtFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-Jan-02 3:04 PM",
	"2006-Jan-2 3:04 PM",
	"2006-Jan-02",
	"2006-Jan-2",
}

// ResolveIssuedAt parses the raw header date into a local timestamp.
// Returns nil when the text matches none of the known layouts.
func ResolveIssuedAt(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range issuedAtFormats {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// parseAmount converts numeric text to a decimal using exact decimal
// parsing. Malformed or missing text yields zero, never an error — the
// document-level contract is "no panic, no exception for bad numbers".
func parseAmount(s string) decimal.Decimal {
	s = trimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}
