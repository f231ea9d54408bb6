package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Pipe0105/visor-realtime/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StaleAggregate is one rollover group: all stale invoices sharing a
// calendar day (issue date, falling back to ingestion date) and a branch.
type StaleAggregate struct {
	Day             time.Time       `gorm:"column:day"`
	BranchID        *uuid.UUID      `gorm:"column:branch_id"`
	InvoiceCount    int             `gorm:"column:invoice_count"`
	TotalSales      decimal.Decimal `gorm:"column:total_sales"`
	TotalNetSales   decimal.Decimal `gorm:"column:total_net_sales"`
	FirstChunkTotal decimal.Decimal `gorm:"column:first_chunk_total"`
}

// TodayStats summarizes the still-open day for the forecast.
type TodayStats struct {
	Total      decimal.Decimal `gorm:"column:total"`
	Count      int64           `gorm:"column:count"`
	FirstChunk decimal.Decimal `gorm:"column:first_chunk"`
}

type InvoiceRepository interface {
	Create(ctx context.Context, tx *gorm.DB, inv *model.Invoice) error
	ExistsBySourceFile(ctx context.Context, tx *gorm.DB, filename string) (bool, error)
	// FindLiveByNumber returns the live invoice with the given business
	// number, or nil when none exists.
	FindLiveByNumber(ctx context.Context, tx *gorm.DB, number string) (*model.Invoice, error)
	// SourceFiles returns the set of already-registered filenames.
	SourceFiles(ctx context.Context) (map[string]struct{}, error)
	ListRecent(ctx context.Context, limit int) ([]model.Invoice, error)
	ListToday(ctx context.Context) ([]model.Invoice, error)
	StatsToday(ctx context.Context, sel BranchSel, chunkSize int) (*TodayStats, error)
	// SameTimeRatios reports, per prior day still holding detail rows, the
	// final total divided by the total accumulated up to asOf's time of day.
	SameTimeRatios(ctx context.Context, sel BranchSel, asOf time.Time) (map[string]float64, error)
	HasStaleBefore(ctx context.Context, cutoff time.Time) (bool, error)
	AggregateStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, chunkSize int) ([]StaleAggregate, error)
	DeleteStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *invoiceRepo) Create(ctx context.Context, tx *gorm.DB, inv *model.Invoice) error {
	return r.conn(tx).WithContext(ctx).Create(inv).Error
}

func (r *invoiceRepo) ExistsBySourceFile(ctx context.Context, tx *gorm.DB, filename string) (bool, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&model.Invoice{}).
		Where("source_file = ?", filename).Count(&count).Error
	return count > 0, err
}

func (r *invoiceRepo) FindLiveByNumber(ctx context.Context, tx *gorm.DB, number string) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.conn(tx).WithContext(ctx).Where("number = ?", number).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) SourceFiles(ctx context.Context) (map[string]struct{}, error) {
	var files []string
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).Pluck("source_file", &files).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		set[f] = struct{}{}
	}
	return set, nil
}

func (r *invoiceRepo) ListRecent(ctx context.Context, limit int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Limit(limit).Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) ListToday(ctx context.Context) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("created_at >= ?", startOfToday()).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) StatsToday(ctx context.Context, sel BranchSel, chunkSize int) (*TodayStats, error) {
	cond, condArgs := sel.Cond("branch_id")
	where := "created_at >= ?"
	args := []interface{}{startOfToday()}
	if cond != "" {
		where += " AND " + cond
		args = append(args, condArgs...)
	}
	args = append(args, chunkSize)

	var stats TodayStats
	err := r.db.WithContext(ctx).Raw(`
		WITH today AS (
			SELECT total, row_number() OVER (ORDER BY created_at) AS rn
			FROM invoices
			WHERE `+where+`
		)
		SELECT COALESCE(SUM(total), 0)                       AS total,
		       COUNT(*)                                      AS count,
		       COALESCE(SUM(total) FILTER (WHERE rn <= ?), 0) AS first_chunk
		FROM today`, args...).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// sameTimeRow carries one prior day's final total and its cumulative total
// up to the query's wall-clock time of day.
type sameTimeRow struct {
	Day           time.Time       `gorm:"column:day"`
	FinalTotal    decimal.Decimal `gorm:"column:final_total"`
	SameTimeTotal decimal.Decimal `gorm:"column:same_time_total"`
}

// SameTimeRatios reads the prior days whose detail rows have not been
// archived yet. It must run before the rollover, which deletes those rows.
// Days with no sales before asOf's time of day are omitted.
func (r *invoiceRepo) SameTimeRatios(ctx context.Context, sel BranchSel, asOf time.Time) (map[string]float64, error) {
	cutoff := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	cond, condArgs := sel.Cond("branch_id")
	where := "created_at < ?"
	args := []interface{}{cutoff}
	if cond != "" {
		where += " AND " + cond
		args = append(args, condArgs...)
	}
	args = append(args, asOf)

	var rows []sameTimeRow
	err := r.db.WithContext(ctx).Raw(`
		WITH stale AS (
			SELECT date_trunc('day', COALESCE(issued_at, created_at)) AS day,
			       COALESCE(issued_at, created_at)                    AS effective_at,
			       total
			FROM invoices
			WHERE `+where+`
		)
		SELECT day,
		       COALESCE(SUM(total), 0)                                              AS final_total,
		       COALESCE(SUM(total) FILTER (WHERE effective_at::time <= ?::time), 0) AS same_time_total
		FROM stale
		GROUP BY day`, args...).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ratios := make(map[string]float64, len(rows))
	for _, row := range rows {
		same := row.SameTimeTotal.InexactFloat64()
		if same <= 0 {
			continue
		}
		ratios[row.Day.Format("2006-01-02")] = row.FinalTotal.InexactFloat64() / same
	}
	return ratios, nil
}

func (r *invoiceRepo) HasStaleBefore(ctx context.Context, cutoff time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("created_at < ?", cutoff).Limit(1).Count(&count).Error
	return count > 0, err
}

// AggregateStaleBefore groups stale invoices by effective day and branch.
// The effective day prefers the document's own issue timestamp and falls
// back to the ingestion timestamp. The first-chunk total sums each group's
// first chunkSize invoices by ingestion order.
func (r *invoiceRepo) AggregateStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, chunkSize int) ([]StaleAggregate, error) {
	var rows []StaleAggregate
	err := r.conn(tx).WithContext(ctx).Raw(`
		WITH stale AS (
			SELECT date_trunc('day', COALESCE(issued_at, created_at)) AS day,
			       branch_id,
			       total,
			       subtotal,
			       row_number() OVER (
			           PARTITION BY date_trunc('day', COALESCE(issued_at, created_at)), branch_id
			           ORDER BY created_at
			       ) AS rn
			FROM invoices
			WHERE created_at < ?
		)
		SELECT day,
		       branch_id,
		       COUNT(*)                                       AS invoice_count,
		       COALESCE(SUM(total), 0)                        AS total_sales,
		       COALESCE(SUM(subtotal), 0)                     AS total_net_sales,
		       COALESCE(SUM(total) FILTER (WHERE rn <= ?), 0) AS first_chunk_total
		FROM stale
		GROUP BY day, branch_id
		ORDER BY day, branch_id`, cutoff, chunkSize).Scan(&rows).Error
	return rows, err
}

func (r *invoiceRepo) DeleteStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) error {
	conn := r.conn(tx).WithContext(ctx)
	// Items first — the FK cascade would cover it, but the explicit order
	// keeps the delete working on DBs restored without the constraint.
	if err := conn.Exec(`
		DELETE FROM invoice_items
		WHERE invoice_id IN (SELECT id FROM invoices WHERE created_at < ?)`, cutoff).Error; err != nil {
		return err
	}
	return conn.Where("created_at < ?", cutoff).Delete(&model.Invoice{}).Error
}

// startOfToday returns local midnight of the current day.
func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
