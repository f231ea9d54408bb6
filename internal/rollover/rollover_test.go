package rollover

import (
	"context"
	"testing"
	"time"

	"github.com/Pipe0105/visor-realtime/internal/model"
	"github.com/Pipe0105/visor-realtime/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ────────────────────────────────────────────────────────────────────

type stubInvoices struct {
	repository.InvoiceRepository
	aggregates []repository.StaleAggregate
	deleted    bool
	hasStale   bool
}

func (s *stubInvoices) HasStaleBefore(context.Context, time.Time) (bool, error) {
	return s.hasStale, nil
}

func (s *stubInvoices) AggregateStaleBefore(context.Context, *gorm.DB, time.Time, int) ([]repository.StaleAggregate, error) {
	return s.aggregates, nil
}

func (s *stubInvoices) DeleteStaleBefore(context.Context, *gorm.DB, time.Time) error {
	s.deleted = true
	s.hasStale = false
	return nil
}

func (s *stubInvoices) DB() *gorm.DB { return nil }

type stubSummaries struct {
	repository.SummaryRepository
	upserts []*model.DailySalesSummary
}

func (s *stubSummaries) Upsert(_ context.Context, _ *gorm.DB, row *model.DailySalesSummary) error {
	s.upserts = append(s.upserts, row)
	return nil
}

type stubBranches struct {
	repository.BranchRepository
	codes map[uuid.UUID]string
}

func (s *stubBranches) CodeMap(context.Context) (map[uuid.UUID]string, error) {
	return s.codes, nil
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestEnsureRolloverNoStaleIsNoOp(t *testing.T) {
	inv := &stubInvoices{hasStale: false}
	sum := &stubSummaries{}
	svc := New(inv, sum, &stubBranches{}, 10, "FLO")

	ran, err := svc.EnsureRollover(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Empty(t, sum.upserts)
	assert.False(t, inv.deleted)
}

func TestEnsureRolloverArchivesAndDeletes(t *testing.T) {
	branchID := uuid.New()
	unknownID := uuid.New()
	yesterday := time.Now().AddDate(0, 0, -1)

	inv := &stubInvoices{
		hasStale: true,
		aggregates: []repository.StaleAggregate{
			{
				Day:             yesterday,
				BranchID:        nil,
				InvoiceCount:    12,
				TotalSales:      decimal.NewFromInt(150000),
				TotalNetSales:   decimal.NewFromInt(126000),
				FirstChunkTotal: decimal.NewFromInt(40000),
			},
			{
				Day:          yesterday,
				BranchID:     &branchID,
				InvoiceCount: 5,
				TotalSales:   decimal.NewFromInt(50000),
			},
			{
				Day:          yesterday,
				BranchID:     &unknownID,
				InvoiceCount: 1,
				TotalSales:   decimal.NewFromInt(1000),
			},
		},
	}
	sum := &stubSummaries{}
	branches := &stubBranches{codes: map[uuid.UUID]string{branchID: "NOR"}}
	svc := New(inv, sum, branches, 10, "flo")

	ran, err := svc.EnsureRollover(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, inv.deleted)

	require.Len(t, sum.upserts, 3)

	def := sum.upserts[0]
	assert.Nil(t, def.BranchID)
	assert.Equal(t, "FLO", def.BranchCode, "default branch label is the upper-cased configured code")
	assert.Equal(t, 12, def.TotalInvoices)
	assert.True(t, def.TotalSales.Equal(decimal.NewFromInt(150000)))
	assert.True(t, def.FirstChunkTotal.Equal(decimal.NewFromInt(40000)))
	// Summary dates are normalized to local midnight.
	assert.Equal(t, 0, def.SummaryDate.Hour())

	assert.Equal(t, "NOR", sum.upserts[1].BranchCode)
	assert.Equal(t, unknownID.String(), sum.upserts[2].BranchCode,
		"a branch missing from the registry keeps its id as label")

	// Second call: everything already archived.
	ran, err = svc.EnsureRollover(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Len(t, sum.upserts, 3)
}
