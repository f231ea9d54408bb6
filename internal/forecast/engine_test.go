package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateRegression(t *testing.T) {
	// History generated from an exact linear relation
	// total = 500 + 1.25·chunk + 12·invoices + 0.1·previous, so the fit must
	// recover it and the prediction for today follows the same relation.
	history := []Sample{
		{FirstChunkTotal: 400, InvoiceCount: 30, PreviousTotal: 2000, Total: 1560},
		{FirstChunkTotal: 520, InvoiceCount: 42, PreviousTotal: 1560, Total: 1810},
		{FirstChunkTotal: 470, InvoiceCount: 35, PreviousTotal: 1810, Total: 1688.5},
		{FirstChunkTotal: 610, InvoiceCount: 50, PreviousTotal: 1688.5, Total: 2031.35},
		{FirstChunkTotal: 550, InvoiceCount: 40, PreviousTotal: 2031.35, Total: 1870.635},
	}

	in := Input{
		PartialSales:    620,
		InvoiceCount:    50,
		PreviousTotal:   1870.635,
		TodayFirstChunk: 620,
		ChunkSize:       10,
		History:         history,
	}
	res := Estimate(in)

	require.Equal(t, MethodRegression, res.Method)
	want := 500 + 1.25*620 + 12*50 + 0.1*1870.635
	assert.InDelta(t, want, res.Estimate, want*0.001)
	assert.InDelta(t, res.Estimate-620, res.Remaining, 0.01)
}

func TestEstimateRegressionSingularFallsThrough(t *testing.T) {
	// Identical samples make the normal equations singular; the engine must
	// fall through instead of dividing by a zero pivot.
	s := Sample{FirstChunkTotal: 500, InvoiceCount: 40, PreviousTotal: 900, Total: 1500}
	in := Input{
		TodayFirstChunk: 600,
		ChunkSize:       10,
		History:         []Sample{s, s, s},
	}
	res := Estimate(in)

	assert.Equal(t, MethodFirstChunkRatio, res.Method)
	assert.InDelta(t, 1800, res.Estimate, 0.001)
}

func TestEstimateTimeOfDayRatio(t *testing.T) {
	in := Input{
		PartialSales:    800,
		InvoiceCount:    15,
		TodayFirstChunk: 400,
		ChunkSize:       10,
		History:         []Sample{{Total: 1000, SameTimeRatio: 2.0}},
	}
	res := Estimate(in)

	require.Equal(t, MethodTimeOfDayRatio, res.Method)
	assert.InDelta(t, 1600, res.Estimate, 0.001)
}

func TestEstimateTimeOfDayRequiresVolume(t *testing.T) {
	// Inside the first chunk the same-time ratio is opening noise.
	in := Input{
		PartialSales:    800,
		InvoiceCount:    5,
		TodayFirstChunk: 800,
		ChunkSize:       10,
		History:         []Sample{{Total: 1000, SameTimeRatio: 2.0, FirstChunkTotal: 500}},
	}
	res := Estimate(in)
	assert.NotEqual(t, MethodTimeOfDayRatio, res.Method)
}

func TestEstimatePreviousDayRatio(t *testing.T) {
	in := Input{
		PartialSales:       600,
		InvoiceCount:       8,
		PreviousTotal:      2000,
		PreviousFirstChunk: 500,
		TodayFirstChunk:    600,
		ChunkSize:          10,
	}
	res := Estimate(in)

	require.Equal(t, MethodPreviousDayRatio, res.Method)
	assert.InDelta(t, 2400, res.Estimate, 0.001)
	assert.InDelta(t, 1800, res.Remaining, 0.001)
}

func TestEstimateFirstChunkRatioSingleSample(t *testing.T) {
	// One historical day ended at 3× its opening chunk; today opened at 600.
	in := Input{
		PartialSales:    600,
		InvoiceCount:    10,
		TodayFirstChunk: 600,
		ChunkSize:       10,
		History:         []Sample{{FirstChunkTotal: 500, Total: 1500}},
	}
	res := Estimate(in)

	require.Equal(t, MethodFirstChunkRatio, res.Method)
	assert.Equal(t, 1800.0, res.Estimate, "600 × (1500 / 500)")
}

func TestEstimateBlended(t *testing.T) {
	// Two days of history: too few for the regression, no chunk data, no
	// usable ratios. Trend predicts 1400, average is 1100, previous is 1200.
	in := Input{
		PartialSales:    300,
		InvoiceCount:    4,
		PreviousTotal:   1200,
		TodayFirstChunk: 300,
		ChunkSize:       10,
		History:         []Sample{{Total: 1000}, {Total: 1200}},
	}
	res := Estimate(in)

	require.Equal(t, MethodBlended, res.Method)
	want := 1400*0.45 + 1100*0.25 + 1200*0.30
	assert.InDelta(t, want, res.Estimate, 0.001)
}

func TestEstimateCurrentTotalFallback(t *testing.T) {
	in := Input{PartialSales: 750, InvoiceCount: 3, ChunkSize: 10}
	res := Estimate(in)

	assert.Equal(t, MethodCurrentTotal, res.Method)
	assert.InDelta(t, 750, res.Estimate, 0.001)
	assert.Zero(t, res.Remaining)
}

func TestEstimateClampsToPreviousDayBeforeFirstSale(t *testing.T) {
	// Nothing sold yet: the forecast floors at yesterday's confirmed total.
	in := Input{PreviousTotal: 1000, ChunkSize: 10}
	res := Estimate(in)

	assert.InDelta(t, 1000, res.Estimate, 0.001)
	assert.InDelta(t, 1000, res.Remaining, 0.001)
}

func TestEstimateRemainingNeverNegative(t *testing.T) {
	// Today already exceeded the only history day.
	in := Input{
		PartialSales:    5000,
		InvoiceCount:    40,
		TodayFirstChunk: 900,
		ChunkSize:       10,
		History:         []Sample{{FirstChunkTotal: 500, Total: 1500}},
	}
	res := Estimate(in)

	assert.GreaterOrEqual(t, res.Remaining, 0.0)
}

func TestEstimateMonotonicInPartial(t *testing.T) {
	// With everything else fixed, selling more so far never lowers the
	// projection.
	base := Input{
		InvoiceCount:    15,
		TodayFirstChunk: 400,
		ChunkSize:       10,
		History:         []Sample{{Total: 1000, SameTimeRatio: 2.0}},
	}
	prev := 0.0
	for _, partial := range []float64{100, 400, 800, 1600} {
		in := base
		in.PartialSales = partial
		est := Estimate(in).Estimate
		assert.GreaterOrEqual(t, est, prev, "partial=%v", partial)
		prev = est
	}
}

func TestDefaultWeightsAppliedWhenZero(t *testing.T) {
	in := Input{
		PreviousTotal:   1200,
		PartialSales:    100,
		TodayFirstChunk: 100,
		ChunkSize:       10,
		History:         []Sample{{Total: 1000}, {Total: 1200}},
	}
	// Zero-value weights behave exactly like the explicit defaults.
	explicit := in
	explicit.Weights = DefaultWeights()

	assert.InDelta(t, Estimate(explicit).Estimate, Estimate(in).Estimate, 0.0001)
}
