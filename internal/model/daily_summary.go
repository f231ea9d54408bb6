package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailySalesSummary is the permanent aggregate for one (day, branch) pair.
// It is written exclusively by the daily rollover with overwrite semantics
// and supersedes the deleted detail rows for that day.
type DailySalesSummary struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SummaryDate time.Time `gorm:"type:date;not null;uniqueIndex:uq_daily_sales_branch_day"`
	// BranchID is nil for the default branch; uniqueness for that case is
	// enforced by a partial index (see infra schema patches).
	BranchID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_daily_sales_branch_day"`
	BranchCode string     `gorm:"type:varchar(10);not null"`

	TotalSales    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	TotalNetSales decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	TotalInvoices int             `gorm:"not null;default:0"`
	// FirstChunkTotal is the summed total of the day's first N invoices by
	// ingestion order. It feeds the forecast history after detail rows are gone.
	FirstChunkTotal decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the historical table name used by the reporting tooling.
func (DailySalesSummary) TableName() string { return "daily_sales_summary" }
