// Package rollover folds past days' invoice detail rows into permanent
// daily summaries and removes them from the operational table.
package rollover

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Pipe0105/visor-realtime/internal/model"
	"github.com/Pipe0105/visor-realtime/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Runner is the slice of the service the ingestion pipeline and the HTTP
// handlers depend on.
type Runner interface {
	EnsureRollover(ctx context.Context) (bool, error)
}

type Service struct {
	invoices    repository.InvoiceRepository
	summaries   repository.SummaryRepository
	branches    repository.BranchRepository
	chunkSize   int
	defaultCode string

	// One rollover at a time per process; callers race on every read/write
	// entry point, so the cheap no-op path must stay outside the lock.
	mu sync.Mutex
}

func New(
	invoices repository.InvoiceRepository,
	summaries repository.SummaryRepository,
	branches repository.BranchRepository,
	chunkSize int,
	defaultCode string,
) *Service {
	return &Service{
		invoices:    invoices,
		summaries:   summaries,
		branches:    branches,
		chunkSize:   chunkSize,
		defaultCode: defaultCode,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// EnsureRollover archives every invoice ingested before local midnight of
// the current day into DailySalesSummary rows (overwrite-upsert per day and
// branch), then deletes the archived detail rows. The whole write is one
// transaction, so a stale table and partial summaries can never coexist —
// any failure leaves everything for the next call to retry. Returns whether
// a rollover actually ran.
func (s *Service) EnsureRollover(ctx context.Context) (bool, error) {
	cutoff := localMidnight(time.Now())

	stale, err := s.invoices.HasStaleBefore(ctx, cutoff)
	if err != nil {
		return false, err
	}
	if !stale {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have finished the rollover while we waited.
	stale, err = s.invoices.HasStaleBefore(ctx, cutoff)
	if err != nil || !stale {
		return false, err
	}

	codes, err := s.branches.CodeMap(ctx)
	if err != nil {
		return false, err
	}

	err = runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		groups, err := s.invoices.AggregateStaleBefore(ctx, tx, cutoff, s.chunkSize)
		if err != nil {
			return err
		}

		for _, g := range groups {
			summary := &model.DailySalesSummary{
				SummaryDate:     localMidnight(g.Day),
				BranchID:        g.BranchID,
				BranchCode:      s.branchCode(codes, g.BranchID),
				TotalSales:      g.TotalSales,
				TotalNetSales:   g.TotalNetSales,
				TotalInvoices:   g.InvoiceCount,
				FirstChunkTotal: g.FirstChunkTotal,
			}
			if err := s.summaries.Upsert(ctx, tx, summary); err != nil {
				return err
			}
		}

		return s.invoices.DeleteStaleBefore(ctx, tx, cutoff)
	})
	if err != nil {
		return false, err
	}

	log.Info().Time("cutoff", cutoff).Msg("daily rollover completed")
	return true, nil
}

func (s *Service) branchCode(codes map[uuid.UUID]string, id *uuid.UUID) string {
	if id == nil {
		return strings.ToUpper(s.defaultCode)
	}
	if code, ok := codes[*id]; ok {
		return code
	}
	return id.String()
}

func localMidnight(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
