package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUBL = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
         xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
         xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2">
  <cbc:ID>FLO-001234</cbc:ID>
  <cbc:IssueDate>2026-08-27</cbc:IssueDate>
  <cbc:IssueTime>14:30:05</cbc:IssueTime>
  <cbc:DocumentCurrencyCode>COP</cbc:DocumentCurrencyCode>
  <cac:AccountingSupplierParty>
    <cac:Party>
      <cac:PartyName><cbc:Name>Distribuidora La Florida</cbc:Name></cac:PartyName>
    </cac:Party>
  </cac:AccountingSupplierParty>
  <cac:AccountingCustomerParty>
    <cac:Party>
      <cac:PartyIdentification><cbc:ID>900123456-7</cbc:ID></cac:PartyIdentification>
      <cac:PartyName><cbc:Name>Cliente Mostrador</cbc:Name></cac:PartyName>
    </cac:Party>
  </cac:AccountingCustomerParty>
  <cac:TaxTotal>
    <cbc:TaxAmount currencyID="COP">1900.00</cbc:TaxAmount>
    <cac:TaxSubtotal>
      <cbc:TaxAmount currencyID="COP">1900.00</cbc:TaxAmount>
      <cac:TaxCategory><cbc:Percent>19</cbc:Percent></cac:TaxCategory>
    </cac:TaxSubtotal>
  </cac:TaxTotal>
  <cac:LegalMonetaryTotal>
    <cbc:LineExtensionAmount currencyID="COP">10000.00</cbc:LineExtensionAmount>
    <cbc:AllowanceTotalAmount currencyID="COP">500.00</cbc:AllowanceTotalAmount>
    <cbc:PayableAmount currencyID="COP">11400.00</cbc:PayableAmount>
  </cac:LegalMonetaryTotal>
  <cac:InvoiceLine>
    <cbc:ID>1</cbc:ID>
    <cbc:InvoicedQuantity unitCode="EA">2</cbc:InvoicedQuantity>
    <cbc:LineExtensionAmount currencyID="COP">10000.00</cbc:LineExtensionAmount>
    <cac:TaxTotal>
      <cbc:TaxAmount currencyID="COP">1900.00</cbc:TaxAmount>
      <cac:TaxSubtotal>
        <cbc:TaxAmount currencyID="COP">1900.00</cbc:TaxAmount>
        <cac:TaxCategory><cbc:Percent>19</cbc:Percent></cac:TaxCategory>
      </cac:TaxSubtotal>
    </cac:TaxTotal>
    <cac:Item>
      <cbc:Description>Cafe molido 500g</cbc:Description>
      <cbc:Name>Cafe 500g</cbc:Name>
      <cac:StandardItemIdentification><cbc:ID>7701234567890</cbc:ID></cac:StandardItemIdentification>
    </cac:Item>
    <cac:Price>
      <cbc:PriceAmount currencyID="COP">5000.00</cbc:PriceAmount>
    </cac:Price>
  </cac:InvoiceLine>
</Invoice>`

func TestParseUBLFullDocument(t *testing.T) {
	doc, err := ParseUBL([]byte(sampleUBL))
	require.NoError(t, err)

	assert.Equal(t, "FLO-001234", doc.Header.Number)
	assert.Equal(t, "COP", doc.Header.Currency)
	assert.Equal(t, "2026-08-27T14:30:05", doc.Header.Date)
	assert.Equal(t, "Distribuidora La Florida", doc.Header.SupplierName)
	assert.Equal(t, "Cliente Mostrador", doc.Header.CustomerName)
	assert.Equal(t, "900123456-7", doc.Header.CustomerTaxID)

	assert.True(t, doc.Totals.Total.Equal(decimal.RequireFromString("11400.00")))
	assert.True(t, doc.Totals.Subtotal.Equal(decimal.RequireFromString("10000.00")))
	assert.True(t, doc.Totals.Tax.Equal(decimal.RequireFromString("1900.00")))
	assert.True(t, doc.Totals.Discount.Equal(decimal.RequireFromString("500.00")))

	require.Len(t, doc.Items, 1)
	item := doc.Items[0]
	require.NotNil(t, item.LineNumber)
	assert.Equal(t, 1, *item.LineNumber)
	assert.Equal(t, "7701234567890", item.ProductCode)
	assert.Equal(t, "Cafe molido 500g", item.Description)
	require.NotNil(t, item.Unit)
	assert.Equal(t, "EA", *item.Unit)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("5000.00")))
	assert.True(t, item.Subtotal.Equal(decimal.RequireFromString("10000.00")))
	require.NotNil(t, item.TaxRate)
	assert.True(t, item.TaxRate.Equal(decimal.NewFromInt(19)))
	assert.True(t, item.TaxAmount.Equal(decimal.RequireFromString("1900.00")))
}

func TestParseUBLTotalFallback(t *testing.T) {
	// No PayableAmount: total = subtotal + tax − discount.
	xml := `<Invoice>
  <ID>X-1</ID>
  <TaxTotal><TaxAmount>19.00</TaxAmount></TaxTotal>
  <LegalMonetaryTotal>
    <LineExtensionAmount>100.00</LineExtensionAmount>
    <AllowanceTotalAmount>10.00</AllowanceTotalAmount>
  </LegalMonetaryTotal>
</Invoice>`
	doc, err := ParseUBL([]byte(xml))
	require.NoError(t, err)
	assert.True(t, doc.Totals.Total.Equal(decimal.RequireFromString("109.00")),
		"got %s", doc.Totals.Total)
}

func TestParseUBLLineOrdinalFallback(t *testing.T) {
	// Non-numeric line IDs fall back to document position.
	xml := `<Invoice>
  <ID>X-2</ID>
  <InvoiceLine><ID>A</ID><Item><Name>Uno</Name></Item></InvoiceLine>
  <InvoiceLine><ID>B</ID><Item><Name>Dos</Name></Item></InvoiceLine>
</Invoice>`
	doc, err := ParseUBL([]byte(xml))
	require.NoError(t, err)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, 1, *doc.Items[0].LineNumber)
	assert.Equal(t, 2, *doc.Items[1].LineNumber)
	// Without StandardItemIdentification the display name serves as code
	// and description.
	assert.Equal(t, "Uno", doc.Items[0].ProductCode)
	assert.Equal(t, "Uno", doc.Items[0].Description)
}

func TestParseUBLErrors(t *testing.T) {
	var perr *ParseError

	_, err := ParseUBL([]byte("<this is not xml"))
	require.ErrorAs(t, err, &perr)

	_, err = ParseUBL([]byte("<Invoice><IssueDate>2026-01-01</IssueDate></Invoice>"))
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "cbc:ID")
}

func TestParseSniffsDialect(t *testing.T) {
	doc, err := Parse([]byte(sampleUBL))
	require.NoError(t, err)
	assert.Equal(t, "FLO-001234", doc.Header.Number)

	// BOM and leading whitespace still sniff as XML.
	bom := append([]byte{0xEF, 0xBB, 0xBF}, []byte("\n  "+sampleUBL)...)
	doc, err = Parse(bom)
	require.NoError(t, err)
	assert.Equal(t, "FLO-001234", doc.Header.Number)

	var perr *ParseError
	_, err = Parse([]byte("   \n\t  "))
	require.ErrorAs(t, err, &perr)
}

func TestResolveIssuedAt(t *testing.T) {
	ts := ResolveIssuedAt("2026-08-27T14:30:05")
	require.NotNil(t, ts)
	assert.Equal(t, 14, ts.Hour())

	ts = ResolveIssuedAt("2026-Aug-27 2:30 PM")
	require.NotNil(t, ts)
	assert.Equal(t, 14, ts.Hour())

	assert.Nil(t, ResolveIssuedAt(""))
	assert.Nil(t, ResolveIssuedAt("27/08/2026"))
}
