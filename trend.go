package main

import (
	"math"
	"slices"
	"time"
)

/* ─── Smoothing constants ────────────────────────────────────────────── */

// Tunable heuristics for the weight-trend smoother. None of these are
// physiologically exact — they were picked to behave well on real logs.
const (
	// defaultSmoothingAlpha is the EMA weight given to each new reading.
	// 0.15 means a single weigh-in moves the trend 15% of the way toward it,
	// which absorbs day-to-day water swings without lagging weeks behind.
	defaultSmoothingAlpha = 0.15

	// outlierSigmaLimit is how many population standard deviations a reading
	// may sit from the mean before it is treated as a bad weigh-in
	// (wrong scale, clothed, typo) and dropped.
	outlierSigmaLimit = 3.0

	// outlierMinObservations is the minimum series length before outlier
	// filtering is attempted at all — a mean over 2 points is meaningless.
	outlierMinObservations = 3

	// stableBandKGPerWeek is the weekly-rate band treated as "stable":
	// rates inside ±this are noise, not a real trend.
	stableBandKGPerWeek = 0.1
)

// Trend confidence tiers, by how much data backs the trend line.
const (
	trendHighMinObs    = 10
	trendHighMinDays   = 10.0
	trendMediumMinObs  = 5
	trendMediumMinDays = 5.0
)

/* ─── Trend types ────────────────────────────────────────────────────── */

// trendDirection classifies which way the smoothed weight is moving.
type trendDirection string

const (
	directionLosing  trendDirection = "losing"
	directionStable  trendDirection = "stable"
	directionGaining trendDirection = "gaining"
)

// trendConfidence grades how much data backs the trend estimate.
type trendConfidence string

const (
	confidenceLow    trendConfidence = "low"
	confidenceMedium trendConfidence = "medium"
	confidenceHigh   trendConfidence = "high"
)

// weightTrend is the derived trend report for GET /api/weight-log/trend.
// Recomputed on demand from raw entries; never persisted.
type weightTrend struct {
	SmoothedWeightKG float64         `json:"smoothed_weight_kg"`
	RawWeightKG      float64         `json:"raw_weight_kg"`
	Direction        trendDirection  `json:"direction"`
	WeeklyRateKG     float64         `json:"weekly_rate_kg"`
	Confidence       trendConfidence `json:"confidence"`
}

/* ─── Smoother ───────────────────────────────────────────────────────── */

// smoothWeight collapses a chronological series of scale readings into one
// denoised kg value: reject outliers, then run an exponential moving average
// seeded with the earliest reading. A single reading is returned verbatim —
// there is nothing to smooth. Callers guarantee a non-empty series
// (estimateTDEE enforces the minimum counts upstream); an empty series
// returns 0 rather than panicking.
func smoothWeight(entries []weightEntry, alpha float64) float64 {
	if len(entries) == 0 {
		return 0
	}
	sorted := sortedByMeasuredAt(entries)
	if len(sorted) == 1 {
		return sorted[0].WeightKG
	}

	filtered := rejectOutliers(sorted)

	ema := filtered[0].WeightKG
	for _, e := range filtered[1:] {
		ema = alpha*e.WeightKG + (1-alpha)*ema
	}
	return round2(ema)
}

// rejectOutliers drops readings more than outlierSigmaLimit population
// standard deviations from the series mean. Two escape hatches keep the
// heuristic from eating legitimate data: a zero-variance series is returned
// as-is, and if filtering would drop more than half the readings the whole
// filter is skipped — users with naturally variable weight keep their data.
func rejectOutliers(sorted []weightEntry) []weightEntry {
	if len(sorted) < outlierMinObservations {
		return sorted
	}

	var sum float64
	for _, e := range sorted {
		sum += e.WeightKG
	}
	mean := sum / float64(len(sorted))

	var sqDev float64
	for _, e := range sorted {
		d := e.WeightKG - mean
		sqDev += d * d
	}
	sigma := math.Sqrt(sqDev / float64(len(sorted)))
	if sigma == 0 {
		return sorted
	}

	kept := make([]weightEntry, 0, len(sorted))
	for _, e := range sorted {
		if math.Abs(e.WeightKG-mean) <= outlierSigmaLimit*sigma {
			kept = append(kept, e)
		}
	}
	if len(kept)*2 < len(sorted) {
		return sorted
	}
	return kept
}

// computeWeightTrend builds the full trend report: smoothed weight over the
// whole series, weekly rate from the smoothed first-half vs second-half
// values, direction from the rate band, and a confidence tier from how much
// data the series holds. Returns nil for an empty series.
func computeWeightTrend(entries []weightEntry) *weightTrend {
	if len(entries) == 0 {
		return nil
	}
	sorted := sortedByMeasuredAt(entries)

	smoothed := smoothWeight(sorted, defaultSmoothingAlpha)
	raw := sorted[len(sorted)-1].WeightKG
	spanDays := sorted[len(sorted)-1].MeasuredAt.Sub(sorted[0].MeasuredAt).Hours() / 24

	var weeklyRate float64
	if len(sorted) >= 2 && spanDays > 0 {
		firstHalf, secondHalf := splitHalves(sorted)
		start := smoothWeight(firstHalf, defaultSmoothingAlpha)
		end := smoothWeight(secondHalf, defaultSmoothingAlpha)
		weeklyRate = (end - start) / spanDays * 7
	}

	direction := directionStable
	switch {
	case weeklyRate < -stableBandKGPerWeek:
		direction = directionLosing
	case weeklyRate > stableBandKGPerWeek:
		direction = directionGaining
	}

	confidence := confidenceLow
	switch {
	case len(sorted) >= trendHighMinObs && spanDays >= trendHighMinDays:
		confidence = confidenceHigh
	case len(sorted) >= trendMediumMinObs && spanDays >= trendMediumMinDays:
		confidence = confidenceMedium
	}

	return &weightTrend{
		SmoothedWeightKG: smoothed,
		RawWeightKG:      raw,
		Direction:        direction,
		WeeklyRateKG:     round2(weeklyRate),
		Confidence:       confidence,
	}
}

/* ─── Shared helpers ─────────────────────────────────────────────────── */

// sortedByMeasuredAt returns a copy of entries in chronological order.
func sortedByMeasuredAt(entries []weightEntry) []weightEntry {
	out := slices.Clone(entries)
	slices.SortFunc(out, func(a, b weightEntry) int {
		return a.MeasuredAt.Compare(b.MeasuredAt)
	})
	return out
}

// daysBetween returns whole elapsed days between two timestamps.
func daysBetween(first, last time.Time) int {
	return int(last.Sub(first).Hours() / 24)
}

// round2 rounds to 2 decimal places — scale precision; anything finer is noise.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
