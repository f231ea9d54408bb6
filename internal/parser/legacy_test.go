package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLegacy = `DISTRIBUIDORA LA FLORIDA
NIT 900123456-7
================================
Factura de venta
Numero: FLO-005678
Fecha: 2026-Aug-27 2:30 PM
Pagina 1
--------------------------------
  1 7701111  Cafe molido 500g      2,00   5.000,00  10.000,00   19,00 %
  2 7702222  Azucar 1kg            1,00   3.500,00   3.500,00
--------------------------------
SUBTOTAL                                           13.500,00
IVA                                                 1.900,00
DESCUENTO                                             500,00
TOTAL CON RETENCION                                14.700,00
TOTAL                                              14.900,00
`

func TestParseLegacyFullDocument(t *testing.T) {
	doc, err := ParseLegacy([]byte(sampleLegacy))
	require.NoError(t, err)

	assert.Equal(t, "FLO-005678", doc.Header.Number)
	assert.Equal(t, "2026-Aug-27 2:30 PM", doc.Header.Date)

	require.Len(t, doc.Items, 2)

	first := doc.Items[0]
	require.NotNil(t, first.LineNumber)
	assert.Equal(t, 1, *first.LineNumber)
	assert.Equal(t, "7701111", first.ProductCode)
	assert.Equal(t, "Cafe molido 500g", first.Description)
	assert.True(t, first.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, first.UnitPrice.Equal(decimal.NewFromInt(5000)))
	assert.True(t, first.Subtotal.Equal(decimal.NewFromInt(10000)))
	require.NotNil(t, first.TaxRate)
	assert.True(t, first.TaxRate.Equal(decimal.NewFromInt(19)))

	second := doc.Items[1]
	assert.Nil(t, second.TaxRate)

	assert.True(t, doc.Totals.Subtotal.Equal(decimal.NewFromInt(13500)))
	assert.True(t, doc.Totals.Tax.Equal(decimal.NewFromInt(1900)))
	assert.True(t, doc.Totals.Discount.Equal(decimal.NewFromInt(500)))
	// "TOTAL CON RETENCION" must not shadow the grand total.
	assert.True(t, doc.Totals.Total.Equal(decimal.NewFromInt(14900)),
		"got %s", doc.Totals.Total)
}

func TestParseLegacyTotalComputedWhenMissing(t *testing.T) {
	report := `Numero: X-9
SUBTOTAL    100,00
IVA          19,00
DESCUENTO    10,00
`
	doc, err := ParseLegacy([]byte(report))
	require.NoError(t, err)
	assert.True(t, doc.Totals.Total.Equal(decimal.NewFromInt(109)))
}

func TestParseLegacyWithoutNumber(t *testing.T) {
	var perr *ParseError
	_, err := ParseLegacy([]byte("sin encabezado\nTOTAL 100,00\n"))
	require.ErrorAs(t, err, &perr)
}

func TestCleanNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1,234,567.89", "1234567.89"},
		{"1.234.567,89", "1234567.89"},
		{"1.234.567", "1234.567"},
		{"$ 99,90", "99.9"},
		{"  42  ", "42"},
		{"", "0"},
		{"abc", "0"},
	}
	for _, tc := range cases {
		got := CleanNumber(tc.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"CleanNumber(%q) = %s, want %s", tc.in, got, tc.want)
	}
}
