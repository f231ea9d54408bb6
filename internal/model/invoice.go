package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is one ingested point-of-sale document. Rows live in this table
// only for the current business day; the daily rollover folds older rows
// into DailySalesSummary and deletes them.
type Invoice struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Number is the business document number printed on the invoice.
	// Unique among live rows, but branches may reuse numbers across days.
	Number string `gorm:"type:varchar(50);not null;index"`
	// BranchID is nil for the default branch.
	BranchID *uuid.UUID `gorm:"type:uuid;index"`
	// IssuedAt is the timestamp recorded inside the document, when present.
	IssuedAt *time.Time
	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	VAT      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;column:vat"`
	Discount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// SourceFile is the originating filename — the duplicate-detection key.
	SourceFile string    `gorm:"type:varchar(255);not null;uniqueIndex:uni_invoices_source_file"`
	CreatedAt  time.Time `gorm:"index"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// InvoiceItem is one line of an Invoice, cascade-deleted with it.
type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID uuid.UUID `gorm:"type:uuid;index;not null"`
	// LineNumber is nil when the source document carries no ordinal.
	LineNumber  *int
	ProductCode string          `gorm:"type:varchar(50)"`
	Description string          `gorm:"type:varchar(255)"`
	Unit        *string         `gorm:"type:varchar(10)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxRate     *decimal.Decimal `gorm:"type:decimal(5,2)"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt   time.Time
}
