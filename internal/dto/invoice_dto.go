package dto

import (
	"time"

	"github.com/Pipe0105/visor-realtime/internal/model"

	"github.com/shopspring/decimal"
)

// InvoiceItemResponse is one invoice line in API responses.
type InvoiceItemResponse struct {
	LineNumber  *int             `json:"line_number,omitempty"`
	ProductCode string           `json:"product_code"`
	Description string           `json:"description"`
	Unit        *string          `json:"unit,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxAmount   decimal.Decimal  `json:"tax_amount"`
}

// InvoiceResponse is one invoice in API responses. Items are present only
// on endpoints that preload them.
type InvoiceResponse struct {
	ID         string                `json:"id"`
	Number     string                `json:"number"`
	BranchID   *string               `json:"branch_id,omitempty"`
	IssuedAt   *time.Time            `json:"issued_at,omitempty"`
	Subtotal   decimal.Decimal       `json:"subtotal"`
	VAT        decimal.Decimal       `json:"vat"`
	Discount   decimal.Decimal       `json:"discount"`
	Total      decimal.Decimal       `json:"total"`
	SourceFile string                `json:"source_file"`
	CreatedAt  time.Time             `json:"created_at"`
	Items      []InvoiceItemResponse `json:"items,omitempty"`
}

// ToInvoiceResponse maps a stored invoice onto its API shape.
func ToInvoiceResponse(inv *model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:         inv.ID.String(),
		Number:     inv.Number,
		IssuedAt:   inv.IssuedAt,
		Subtotal:   inv.Subtotal,
		VAT:        inv.VAT,
		Discount:   inv.Discount,
		Total:      inv.Total,
		SourceFile: inv.SourceFile,
		CreatedAt:  inv.CreatedAt,
	}
	if inv.BranchID != nil {
		id := inv.BranchID.String()
		resp.BranchID = &id
	}
	for i := range inv.Items {
		it := &inv.Items[i]
		resp.Items = append(resp.Items, InvoiceItemResponse{
			LineNumber:  it.LineNumber,
			ProductCode: it.ProductCode,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
			TaxRate:     it.TaxRate,
			TaxAmount:   it.TaxAmount,
		})
	}
	return resp
}

// InvoiceListResponse wraps invoice collections.
type InvoiceListResponse struct {
	Count    int               `json:"count"`
	Invoices []InvoiceResponse `json:"invoices"`
}
