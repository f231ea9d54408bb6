package forecast

import (
	"context"
	"math"
	"time"

	"github.com/Pipe0105/visor-realtime/internal/dto"
	"github.com/Pipe0105/visor-realtime/internal/repository"
	"github.com/Pipe0105/visor-realtime/internal/rollover"
)

// History-window bounds for the forecast query.
const (
	MinHistoryDays = 3
	MaxHistoryDays = 90
)

// Service assembles the engine input from the operational table and the
// daily summaries, and runs the rollover first so that "today" never
// contains leftovers from previous days.
type Service struct {
	invoices    repository.InvoiceRepository
	summaries   repository.SummaryRepository
	branches    repository.BranchRepository
	rollover    rollover.Runner
	chunkSize   int
	defaultDays int
	defaultCode string
	weights     Weights
}

func NewService(
	invoices repository.InvoiceRepository,
	summaries repository.SummaryRepository,
	branches repository.BranchRepository,
	roll rollover.Runner,
	chunkSize, defaultDays int,
	defaultCode string,
	weights Weights,
) *Service {
	return &Service{
		invoices:    invoices,
		summaries:   summaries,
		branches:    branches,
		rollover:    roll,
		chunkSize:   chunkSize,
		defaultDays: defaultDays,
		defaultCode: defaultCode,
		weights:     weights,
	}
}

// Forecast estimates today's final total for the branch selected by the
// free-form filter (code, UUID or "all").
func (s *Service) Forecast(ctx context.Context, branchFilter string, days int) (*dto.ForecastResponse, error) {
	if days == 0 {
		days = s.defaultDays
	}
	if days < MinHistoryDays {
		days = MinHistoryDays
	}
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}

	sel, err := s.branches.Resolve(ctx, branchFilter, s.defaultCode)
	if err != nil {
		return nil, err
	}

	// The ratios read prior days' detail rows, which the rollover is about
	// to archive and delete, so they go first.
	ratios, err := s.invoices.SameTimeRatios(ctx, sel, time.Now())
	if err != nil {
		return nil, err
	}

	if _, err := s.rollover.EnsureRollover(ctx); err != nil {
		return nil, err
	}

	stats, err := s.invoices.StatsToday(ctx, sel, s.chunkSize)
	if err != nil {
		return nil, err
	}

	rows, err := s.summaries.History(ctx, sel, days)
	if err != nil {
		return nil, err
	}

	yesterday, err := s.summaries.DayRow(ctx, sel, time.Now().AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	in := Input{
		PartialSales:    stats.Total.InexactFloat64(),
		InvoiceCount:    int(stats.Count),
		TodayFirstChunk: stats.FirstChunk.InexactFloat64(),
		ChunkSize:       s.chunkSize,
		Weights:         s.weights,
	}
	if yesterday != nil {
		in.PreviousTotal = yesterday.TotalSales.InexactFloat64()
		in.PreviousFirstChunk = yesterday.FirstChunkTotal.InexactFloat64()
	}

	history := make([]dto.ForecastHistoryDay, 0, len(rows))
	for i, row := range rows {
		sample := Sample{
			FirstChunkTotal: row.FirstChunkTotal.InexactFloat64(),
			InvoiceCount:    float64(row.TotalInvoices),
			Total:           row.TotalSales.InexactFloat64(),
			SameTimeRatio:   ratios[row.Day.Format("2006-01-02")],
		}
		if i > 0 {
			sample.PreviousTotal = rows[i-1].TotalSales.InexactFloat64()
		}
		in.History = append(in.History, sample)

		history = append(history, dto.ForecastHistoryDay{
			Date:            row.Day.Format("2006-01-02"),
			Total:           round2(row.TotalSales.InexactFloat64()),
			NetTotal:        round2(row.TotalNetSales.InexactFloat64()),
			Invoices:        row.TotalInvoices,
			FirstChunkTotal: round2(row.FirstChunkTotal.InexactFloat64()),
		})
	}

	res := Estimate(in)

	return &dto.ForecastResponse{
		Branch:        sel.Code,
		Days:          days,
		Method:        res.Method,
		Estimate:      round2(res.Estimate),
		Remaining:     round2(res.Remaining),
		CurrentTotal:  round2(in.PartialSales),
		InvoiceCount:  stats.Count,
		PreviousTotal: round2(in.PreviousTotal),
		History:       history,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
