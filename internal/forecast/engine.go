// Package forecast estimates the end-of-day sales total for the still-open
// business day from partial data and daily-summary history.
package forecast

import (
	"math"
)

// Method tags returned with every estimate, ordered by precedence.
const (
	MethodRegression       = "regression"
	MethodTimeOfDayRatio   = "time_of_day_ratio"
	MethodPreviousDayRatio = "previous_day_ratio"
	MethodFirstChunkRatio  = "first_chunk_ratio"
	MethodBlended          = "blended"
	MethodHistoryAverage   = "history_average"
	MethodCurrentTotal     = "current_total"
)

// Sample is one historical day. FirstChunkTotal is the summed total of that
// day's first N invoices by arrival order; SameTimeRatio, when positive, is
// the day's final total divided by its total at the equivalent elapsed
// time-of-day (zero when the intraday data no longer exists).
type Sample struct {
	FirstChunkTotal float64
	InvoiceCount    float64
	PreviousTotal   float64
	Total           float64
	SameTimeRatio   float64
}

// Weights configures the blended fallback. The values are tuned heuristics
// with no principled derivation; they are surfaced as configuration so
// product can review them.
type Weights struct {
	Trend           float64 // linear-trend extrapolation
	Average         float64 // historical daily average
	Previous        float64 // yesterday's total, when a trend is available
	PreviousNoTrend float64 // yesterday's total, when no trend is available
}

// DefaultWeights returns the production tuning.
func DefaultWeights() Weights {
	return Weights{Trend: 0.45, Average: 0.25, Previous: 0.30, PreviousNoTrend: 0.50}
}

// Input carries today's partial figures plus the history window.
type Input struct {
	PartialSales       float64
	InvoiceCount       int
	PreviousTotal      float64 // yesterday's confirmed total
	PreviousFirstChunk float64 // yesterday's first-chunk total, 0 when unknown
	TodayFirstChunk    float64
	ChunkSize          int
	History            []Sample
	Weights            Weights
}

// Result is the estimate plus the method that produced it.
type Result struct {
	Estimate  float64
	Remaining float64
	Method    string
}

// minRegressionSamples is the smallest history that can support the
// four-coefficient fit.
const minRegressionSamples = 3

// pivotEpsilon disqualifies near-singular normal-equation systems.
const pivotEpsilon = 1e-12

// Estimate produces the end-of-day estimate using the first applicable
// method in precedence order, then applies the floor rules.
func Estimate(in Input) Result {
	if (in.Weights == Weights{}) {
		in.Weights = DefaultWeights()
	}
	partial := math.Max(in.PartialSales, 0)

	res := estimate(in, partial)

	// A day with literally no recorded sales yet should not forecast below
	// a comparable prior day. Flagged for product review: during a genuine
	// slow morning this tracks yesterday rather than the observed pace.
	if in.PreviousTotal > 0 && res.Estimate < in.PreviousTotal && in.TodayFirstChunk == 0 {
		res.Estimate = in.PreviousTotal
	}

	res.Remaining = math.Max(res.Estimate-partial, 0)
	return res
}

func estimate(in Input, partial float64) Result {
	if est, ok := regress(in.History, partial, float64(in.InvoiceCount), in.PreviousTotal); ok {
		return Result{Estimate: math.Max(est, partial), Method: MethodRegression}
	}

	if est, ok := timeOfDayRatio(in, partial); ok {
		return Result{Estimate: math.Max(est, partial), Method: MethodTimeOfDayRatio}
	}

	if in.PreviousTotal > 0 && in.PreviousFirstChunk > 0 && in.TodayFirstChunk > 0 {
		ratio := in.PreviousTotal / in.PreviousFirstChunk
		return Result{Estimate: in.TodayFirstChunk * ratio, Method: MethodPreviousDayRatio}
	}

	if est, ok := firstChunkRatio(in.History, in.TodayFirstChunk); ok {
		return Result{Estimate: est, Method: MethodFirstChunkRatio}
	}

	if est, ok := blended(in); ok {
		return Result{Estimate: est, Method: MethodBlended}
	}

	if avg, ok := historyAverage(in.History); ok {
		return Result{Estimate: avg, Method: MethodHistoryAverage}
	}
	return Result{Estimate: partial, Method: MethodCurrentTotal}
}

// regress fits total ≈ b0 + b1·partial + b2·invoices + b3·previous by
// ordinary least squares over the history and evaluates it for today.
func regress(history []Sample, partial, invoices, previous float64) (float64, bool) {
	if len(history) < minRegressionSamples {
		return 0, false
	}

	var sp, si, sv, st float64
	var spp, sii, svv float64
	var spi, spv, siv float64
	var spt, sit, svt float64
	for _, h := range history {
		p, i, v, t := h.FirstChunkTotal, h.InvoiceCount, h.PreviousTotal, h.Total
		sp += p
		si += i
		sv += v
		st += t
		spp += p * p
		sii += i * i
		svv += v * v
		spi += p * i
		spv += p * v
		siv += i * v
		spt += p * t
		sit += i * t
		svt += v * t
	}

	n := float64(len(history))
	matrix := [4][5]float64{
		{n, sp, si, sv, st},
		{sp, spp, spi, spv, spt},
		{si, spi, sii, siv, sit},
		{sv, spv, siv, svv, svt},
	}

	coeffs, ok := solve(matrix)
	if !ok {
		return 0, false
	}

	pred := coeffs[0] + coeffs[1]*partial + coeffs[2]*invoices + coeffs[3]*previous
	if math.IsNaN(pred) || math.IsInf(pred, 0) || pred <= 0 {
		return 0, false
	}
	return pred, true
}

// solve runs Gaussian elimination with partial pivoting on the augmented
// 4×5 normal-equations system. A pivot below pivotEpsilon means the system
// is (near-)singular and the regression is disqualified.
func solve(aug [4][5]float64) ([4]float64, bool) {
	const size = 4
	var out [4]float64

	for pivot := 0; pivot < size; pivot++ {
		best := pivot
		for row := pivot + 1; row < size; row++ {
			if math.Abs(aug[row][pivot]) > math.Abs(aug[best][pivot]) {
				best = row
			}
		}
		if math.Abs(aug[best][pivot]) < pivotEpsilon {
			return out, false
		}
		aug[pivot], aug[best] = aug[best], aug[pivot]

		pv := aug[pivot][pivot]
		for col := pivot; col <= size; col++ {
			aug[pivot][col] /= pv
		}

		for row := 0; row < size; row++ {
			if row == pivot {
				continue
			}
			factor := aug[row][pivot]
			if factor == 0 {
				continue
			}
			for col := pivot; col <= size; col++ {
				aug[row][col] -= factor * aug[pivot][col]
			}
		}
	}

	for row := 0; row < size; row++ {
		out[row] = aug[row][size]
	}
	return out, true
}

// timeOfDayRatio projects today's running total by the weighted average of
// the historical final÷same-time ratios. Only applicable once today has
// outgrown the first-chunk sample size — before that the ratio is dominated
// by opening noise.
func timeOfDayRatio(in Input, partial float64) (float64, bool) {
	if partial <= 0 || in.InvoiceCount <= in.ChunkSize {
		return 0, false
	}
	var weighted, weight float64
	for _, h := range in.History {
		if h.SameTimeRatio > 0 && h.Total > 0 {
			weighted += h.SameTimeRatio * h.Total
			weight += h.Total
		}
	}
	if weight == 0 {
		return 0, false
	}
	return partial * (weighted / weight), true
}

// firstChunkRatio applies the history's average final÷first-chunk ratio,
// weighted by final total to favor high-volume days.
func firstChunkRatio(history []Sample, todayChunk float64) (float64, bool) {
	if todayChunk <= 0 {
		return 0, false
	}
	var weighted, weight float64
	for _, h := range history {
		if h.FirstChunkTotal > 0 && h.Total > 0 {
			weighted += (h.Total / h.FirstChunkTotal) * h.Total
			weight += h.Total
		}
	}
	if weight == 0 {
		return 0, false
	}
	return todayChunk * (weighted / weight), true
}

// blended combines a linear trend over recent totals, the historical daily
// average and yesterday's total, normalized by the weight actually used.
func blended(in Input) (float64, bool) {
	var sum, used float64

	trend, hasTrend := trendExtrapolation(in.History)
	if hasTrend {
		sum += trend * in.Weights.Trend
		used += in.Weights.Trend
	}
	if avg, ok := historyAverage(in.History); ok {
		sum += avg * in.Weights.Average
		used += in.Weights.Average
	}
	if in.PreviousTotal > 0 {
		w := in.Weights.Previous
		if !hasTrend {
			w = in.Weights.PreviousNoTrend
		}
		sum += in.PreviousTotal * w
		used += w
	}

	if used == 0 {
		return 0, false
	}
	return sum / used, true
}

// trendExtrapolation fits totals against day index by least squares and
// predicts the next day.
func trendExtrapolation(history []Sample) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}
	n := float64(len(history))
	var sx, sy, sxx, sxy float64
	for i, h := range history {
		x := float64(i)
		sx += x
		sy += h.Total
		sxx += x * x
		sxy += x * h.Total
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, false
	}
	slope := (n*sxy - sx*sy) / den
	intercept := (sy - slope*sx) / n
	pred := intercept + slope*n
	if pred <= 0 {
		return 0, false
	}
	return pred, true
}

func historyAverage(history []Sample) (float64, bool) {
	var sum float64
	var n int
	for _, h := range history {
		if h.Total > 0 {
			sum += h.Total
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
