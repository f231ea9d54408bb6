package parser

import (
	"encoding/xml"
	"strconv"
)

// UBL 2.1 wire structs. Field tags use unqualified local names, which
// encoding/xml matches against the cbc:/cac: namespaced elements.

type ublAmount struct {
	Value      string `xml:",chardata"`
	CurrencyID string `xml:"currencyID,attr"`
}

type ublQuantity struct {
	Value    string `xml:",chardata"`
	UnitCode string `xml:"unitCode,attr"`
}

type ublParty struct {
	Name  string `xml:"PartyName>Name"`
	TaxID string `xml:"PartyIdentification>ID"`
}

type ublTaxSubtotal struct {
	TaxAmount ublAmount `xml:"TaxAmount"`
	Percent   string    `xml:"TaxCategory>Percent"`
}

type ublTaxTotal struct {
	TaxAmount ublAmount        `xml:"TaxAmount"`
	Subtotals []ublTaxSubtotal `xml:"TaxSubtotal"`
}

type ublLine struct {
	ID                  string        `xml:"ID"`
	InvoicedQuantity    ublQuantity   `xml:"InvoicedQuantity"`
	LineExtensionAmount ublAmount     `xml:"LineExtensionAmount"`
	ItemStandardID      string        `xml:"Item>StandardItemIdentification>ID"`
	ItemName            string        `xml:"Item>Name"`
	ItemDescription     string        `xml:"Item>Description"`
	PriceAmount         ublAmount     `xml:"Price>PriceAmount"`
	TaxTotals           []ublTaxTotal `xml:"TaxTotal"`
}

func (l *ublLine) taxSubtotals() []ublTaxSubtotal {
	var out []ublTaxSubtotal
	for _, tt := range l.TaxTotals {
		out = append(out, tt.Subtotals...)
	}
	return out
}

type ublMonetaryTotal struct {
	LineExtensionAmount  ublAmount `xml:"LineExtensionAmount"`
	AllowanceTotalAmount ublAmount `xml:"AllowanceTotalAmount"`
	PayableAmount        ublAmount `xml:"PayableAmount"`
}

type ublInvoice struct {
	ID                   string           `xml:"ID"`
	IssueDate            string           `xml:"IssueDate"`
	IssueTime            string           `xml:"IssueTime"`
	DocumentCurrencyCode string           `xml:"DocumentCurrencyCode"`
	Supplier             ublParty         `xml:"AccountingSupplierParty>Party"`
	Customer             ublParty         `xml:"AccountingCustomerParty>Party"`
	TaxTotals            []ublTaxTotal    `xml:"TaxTotal"`
	MonetaryTotal        ublMonetaryTotal `xml:"LegalMonetaryTotal"`
	Lines                []ublLine        `xml:"InvoiceLine"`
}

// ParseUBL parses a UBL 2.1 tax invoice.
func ParseUBL(content []byte) (*Document, error) {
	var inv ublInvoice
	if err := xml.Unmarshal(content, &inv); err != nil {
		return nil, &ParseError{Reason: "invalid UBL XML", Err: err}
	}
	if trimSpace(inv.ID) == "" {
		return nil, &ParseError{Reason: "UBL document has no cbc:ID"}
	}

	doc := &Document{}
	doc.Header.Number = trimSpace(inv.ID)
	doc.Header.Currency = trimSpace(inv.DocumentCurrencyCode)
	doc.Header.SupplierName = trimSpace(inv.Supplier.Name)
	doc.Header.CustomerName = trimSpace(inv.Customer.Name)
	doc.Header.CustomerTaxID = trimSpace(inv.Customer.TaxID)

	// Issue date and time concatenate into a single timestamp string.
	issueDate := trimSpace(inv.IssueDate)
	issueTime := trimSpace(inv.IssueTime)
	switch {
	case issueDate != "" && issueTime != "":
		doc.Header.Date = issueDate + "T" + issueTime
	case issueDate != "":
		doc.Header.Date = issueDate
	}

	if doc.Header.Currency == "" {
		doc.Header.Currency = trimSpace(inv.MonetaryTotal.PayableAmount.CurrencyID)
	}

	doc.Totals.Subtotal = parseAmount(inv.MonetaryTotal.LineExtensionAmount.Value)
	doc.Totals.Discount = parseAmount(inv.MonetaryTotal.AllowanceTotalAmount.Value)
	for _, tt := range inv.TaxTotals {
		doc.Totals.Tax = doc.Totals.Tax.Add(parseAmount(tt.TaxAmount.Value))
	}
	if trimSpace(inv.MonetaryTotal.PayableAmount.Value) != "" {
		doc.Totals.Total = parseAmount(inv.MonetaryTotal.PayableAmount.Value)
	} else {
		doc.Totals.Total = doc.Totals.Subtotal.Add(doc.Totals.Tax).Sub(doc.Totals.Discount)
	}

	for i, line := range inv.Lines {
		item := Item{
			Quantity:  parseAmount(line.InvoicedQuantity.Value),
			UnitPrice: parseAmount(line.PriceAmount.Value),
			Subtotal:  parseAmount(line.LineExtensionAmount.Value),
		}

		// Ordinal: explicit cbc:ID when numeric, positional fallback otherwise.
		n := i + 1
		if parsed, err := strconv.Atoi(trimSpace(line.ID)); err == nil {
			n = parsed
		}
		item.LineNumber = &n

		if uc := trimSpace(line.InvoicedQuantity.UnitCode); uc != "" {
			item.Unit = &uc
		}

		// Product code prefers the structured identification over the display name.
		item.ProductCode = trimSpace(line.ItemStandardID)
		if item.ProductCode == "" {
			item.ProductCode = trimSpace(line.ItemName)
		}
		item.Description = trimSpace(line.ItemDescription)
		if item.Description == "" {
			item.Description = trimSpace(line.ItemName)
		}

		for _, sub := range line.taxSubtotals() {
			if item.TaxRate == nil && trimSpace(sub.Percent) != "" {
				rate := parseAmount(sub.Percent)
				item.TaxRate = &rate
			}
			item.TaxAmount = item.TaxAmount.Add(parseAmount(sub.TaxAmount.Value))
		}

		doc.Items = append(doc.Items, item)
	}

	return doc, nil
}
