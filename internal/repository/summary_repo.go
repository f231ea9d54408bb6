package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Pipe0105/visor-realtime/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailyHistoryRow is one day of aggregate history, already summed across
// the branches the selection covers.
type DailyHistoryRow struct {
	Day             time.Time       `gorm:"column:day"`
	TotalSales      decimal.Decimal `gorm:"column:total_sales"`
	TotalNetSales   decimal.Decimal `gorm:"column:total_net_sales"`
	TotalInvoices   int             `gorm:"column:total_invoices"`
	FirstChunkTotal decimal.Decimal `gorm:"column:first_chunk_total"`
}

type SummaryRepository interface {
	// Upsert overwrites (not increments) the summary for the row's
	// (summary_date, branch_id) pair, creating it when absent.
	Upsert(ctx context.Context, tx *gorm.DB, s *model.DailySalesSummary) error
	// History returns the last `days` days of per-day totals before today,
	// oldest first.
	History(ctx context.Context, sel BranchSel, days int) ([]DailyHistoryRow, error)
	// DayRow returns the aggregate for one calendar day, or nil when the
	// day has no summary.
	DayRow(ctx context.Context, sel BranchSel, day time.Time) (*DailyHistoryRow, error)
}

type summaryRepo struct{ db *gorm.DB }

func NewSummaryRepository(db *gorm.DB) SummaryRepository { return &summaryRepo{db: db} }

func (r *summaryRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *summaryRepo) Upsert(ctx context.Context, tx *gorm.DB, s *model.DailySalesSummary) error {
	conn := r.conn(tx).WithContext(ctx)

	q := conn.Model(&model.DailySalesSummary{}).Where("summary_date = ?", s.SummaryDate)
	if s.BranchID != nil {
		q = q.Where("branch_id = ?", *s.BranchID)
	} else {
		q = q.Where("branch_id IS NULL")
	}

	var existing model.DailySalesSummary
	err := q.First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return conn.Create(s).Error
	}
	if err != nil {
		return err
	}

	return conn.Model(&existing).Updates(map[string]interface{}{
		"branch_code":       s.BranchCode,
		"total_sales":       s.TotalSales,
		"total_net_sales":   s.TotalNetSales,
		"total_invoices":    s.TotalInvoices,
		"first_chunk_total": s.FirstChunkTotal,
	}).Error
}

func (r *summaryRepo) History(ctx context.Context, sel BranchSel, days int) ([]DailyHistoryRow, error) {
	today := truncateDay(time.Now())
	from := today.AddDate(0, 0, -days)

	cond, condArgs := sel.Cond("branch_id")
	where := "summary_date >= ? AND summary_date < ?"
	args := []interface{}{from, today}
	if cond != "" {
		where += " AND " + cond
		args = append(args, condArgs...)
	}

	var rows []DailyHistoryRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT summary_date                  AS day,
		       SUM(total_sales)              AS total_sales,
		       SUM(total_net_sales)          AS total_net_sales,
		       SUM(total_invoices)           AS total_invoices,
		       SUM(first_chunk_total)        AS first_chunk_total
		FROM daily_sales_summary
		WHERE `+where+`
		GROUP BY summary_date
		ORDER BY summary_date`, args...).Scan(&rows).Error
	return rows, err
}

func (r *summaryRepo) DayRow(ctx context.Context, sel BranchSel, day time.Time) (*DailyHistoryRow, error) {
	cond, condArgs := sel.Cond("branch_id")
	where := "summary_date = ?"
	args := []interface{}{truncateDay(day)}
	if cond != "" {
		where += " AND " + cond
		args = append(args, condArgs...)
	}

	var rows []DailyHistoryRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT summary_date           AS day,
		       SUM(total_sales)       AS total_sales,
		       SUM(total_net_sales)   AS total_net_sales,
		       SUM(total_invoices)    AS total_invoices,
		       SUM(first_chunk_total) AS first_chunk_total
		FROM daily_sales_summary
		WHERE `+where+`
		GROUP BY summary_date`, args...).Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
