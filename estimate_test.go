package main

import (
	"testing"
	"time"
)

var estimateTestBase = time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC)

// weighIn builds one scale reading at a day offset from the test base time.
// Fractional offsets give sub-day spacing.
func weighIn(dayOffset, kg float64) weightEntry {
	return weightEntry{
		MeasuredAt: estimateTestBase.Add(time.Duration(dayOffset * 24 * float64(time.Hour))),
		WeightKG:   kg,
		Source:     "manual",
	}
}

// loggedDays builds n consecutive daily intake summaries at a flat calorie
// total.
func loggedDays(n, calories int) []dailyIntakeSummary {
	out := make([]dailyIntakeSummary, n)
	for i := range out {
		out[i] = dailyIntakeSummary{
			Date:          DateOnly{estimateTestBase.AddDate(0, 0, i)},
			TotalCalories: calories,
			ItemCount:     3,
		}
	}
	return out
}

// twoPhaseWeights builds ten readings over a 14-day span: five at startKG on
// days 0–4, five at endKG on days 10–14. The halves smooth to exactly
// startKG and endKG, which makes expected values easy to derive by hand.
func twoPhaseWeights(startKG, endKG float64) []weightEntry {
	var entries []weightEntry
	for day := 0; day < 5; day++ {
		entries = append(entries, weighIn(float64(day), startKG))
	}
	for day := 10; day <= 14; day++ {
		entries = append(entries, weighIn(float64(day), endKG))
	}
	return entries
}

/* ─── estimateTDEE tests ─────────────────────────────────────────────── */

// TestEstimateTDEE_HandComputedWindow pins the estimator against a fully
// hand-computed window: 14 days logged at 2000 kcal, weight smoothing from
// 80.0 to 79.0 kg over 14 days. Losing tissue at 75% fat / 25% lean stores
// 6225 kcal/kg, so the deficit was 6225/14 ≈ 445 kcal/day and TDEE ≈ 2445.
func TestEstimateTDEE_HandComputedWindow(t *testing.T) {
	est := estimateTDEE(loggedDays(14, 2000), twoPhaseWeights(80.0, 79.0))
	if est == nil {
		t.Fatal("expected an estimate, got nil")
	}

	if est.TDEEKcal != 2445 {
		t.Errorf("TDEE = %d, want 2445", est.TDEEKcal)
	}
	if est.ConfidenceLowKcal != 2346 || est.ConfidenceHighKcal != 2544 {
		t.Errorf("confidence interval = [%d, %d], want [2346, 2544]",
			est.ConfidenceLowKcal, est.ConfidenceHighKcal)
	}
	if est.UncertaintyKcal != 99 {
		t.Errorf("uncertainty = %d, want 99", est.UncertaintyKcal)
	}
	if est.DataQualityScore != 1.0 {
		t.Errorf("data quality = %v, want exactly 1.0", est.DataQualityScore)
	}
	if est.WeightChangeKG != -1.0 {
		t.Errorf("weight change = %v, want -1.0", est.WeightChangeKG)
	}
	if est.StartWeightKG != 80.0 || est.EndWeightKG != 79.0 {
		t.Errorf("start/end weight = %v/%v, want 80/79", est.StartWeightKG, est.EndWeightKG)
	}
	if est.AvgDailyIntakeKcal != 2000 {
		t.Errorf("avg intake = %v, want 2000", est.AvgDailyIntakeKcal)
	}
	if est.DaysAnalyzed != 14 {
		t.Errorf("days analyzed = %d, want 14", est.DaysAnalyzed)
	}
	if est.FoodLogCount != 14 || est.WeightLogCount != 10 {
		t.Errorf("log counts = %d food / %d weight, want 14 / 10",
			est.FoodLogCount, est.WeightLogCount)
	}
}

// TestEstimateTDEE_GainingUsesLeanerMix verifies the 50/50 tissue mix on
// weight gain: +1 kg over 14 days at 4750 kcal/kg is a ~339 kcal/day
// surplus, so TDEE lands at 2500 − 339 ≈ 2161.
func TestEstimateTDEE_GainingUsesLeanerMix(t *testing.T) {
	est := estimateTDEE(loggedDays(14, 2500), twoPhaseWeights(80.0, 81.0))
	if est == nil {
		t.Fatal("expected an estimate, got nil")
	}
	if est.TDEEKcal != 2161 {
		t.Errorf("TDEE = %d, want 2161", est.TDEEKcal)
	}
	if est.WeightChangeKG != 1.0 {
		t.Errorf("weight change = %v, want +1.0", est.WeightChangeKG)
	}
}

// TestEstimateTDEE_InsufficientData verifies the nil sentinel for each
// minimum-data guard: the estimator refuses rather than extrapolates.
func TestEstimateTDEE_InsufficientData(t *testing.T) {
	cases := []struct {
		name    string
		intake  []dailyIntakeSummary
		entries []weightEntry
	}{
		{"4 food days, plenty of weight data", loggedDays(4, 2000), twoPhaseWeights(80, 79)},
		{"single weight reading", loggedDays(14, 2000), []weightEntry{weighIn(0, 80)}},
		{"no weight readings", loggedDays(14, 2000), nil},
		{"readings 6 hours apart", loggedDays(14, 2000), []weightEntry{weighIn(0, 80), weighIn(0.25, 79.8)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if est := estimateTDEE(tc.intake, tc.entries); est != nil {
				t.Errorf("expected nil estimate, got TDEE %d", est.TDEEKcal)
			}
		})
	}
}

// TestEstimateTDEE_MinimumViableWindow verifies the smallest window the
// guards allow still estimates: 5 food days, 2 readings a day apart.
func TestEstimateTDEE_MinimumViableWindow(t *testing.T) {
	entries := []weightEntry{weighIn(0, 80), weighIn(1, 80)}
	est := estimateTDEE(loggedDays(5, 2200), entries)
	if est == nil {
		t.Fatal("expected an estimate, got nil")
	}
	if est.TDEEKcal != 2200 {
		t.Errorf("TDEE with zero weight change = %d, want avg intake 2200", est.TDEEKcal)
	}
	if est.DataQualityScore != 0.28 {
		t.Errorf("data quality = %v, want 0.28", est.DataQualityScore)
	}
	if est.UncertaintyKcal != 244 {
		t.Errorf("uncertainty = %d, want 244", est.UncertaintyKcal)
	}
}

// TestEstimateTDEE_ClampsToPlausibleRange verifies absurd windows pin to the
// floor/ceiling, interval bounds included.
func TestEstimateTDEE_ClampsToPlausibleRange(t *testing.T) {
	// 10 kg lost in 14 days on 3000 kcal/day would imply a ~7400 kcal TDEE.
	high := estimateTDEE(loggedDays(14, 3000), twoPhaseWeights(90.0, 80.0))
	if high == nil {
		t.Fatal("expected an estimate, got nil")
	}
	if high.TDEEKcal != tdeeCeilKcal {
		t.Errorf("TDEE = %d, want ceiling %d", high.TDEEKcal, tdeeCeilKcal)
	}
	if high.ConfidenceHighKcal != tdeeCeilKcal {
		t.Errorf("confidence high = %d, want clamped to %d", high.ConfidenceHighKcal, tdeeCeilKcal)
	}

	// 10 kg gained in 14 days on 1200 kcal/day would imply a negative TDEE.
	low := estimateTDEE(loggedDays(14, 1200), twoPhaseWeights(80.0, 90.0))
	if low == nil {
		t.Fatal("expected an estimate, got nil")
	}
	if low.TDEEKcal != tdeeFloorKcal {
		t.Errorf("TDEE = %d, want floor %d", low.TDEEKcal, tdeeFloorKcal)
	}
	if low.ConfidenceLowKcal != tdeeFloorKcal {
		t.Errorf("confidence low = %d, want clamped to %d", low.ConfidenceLowKcal, tdeeFloorKcal)
	}
}

/* ─── Quality and uncertainty tests ──────────────────────────────────── */

func TestDataQualityScore(t *testing.T) {
	cases := []struct {
		name                string
		food, weights, span int
		want                float64
	}{
		{"perfect window", 14, 7, 14, 1.0},
		{"oversupplied window caps at 1", 28, 14, 28, 1.0},
		{"half the food logs", 7, 7, 14, 0.75},
		{"bare minimum", 5, 2, 1, 0.28},
		{"nothing", 0, 0, 0, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dataQualityScore(tc.food, tc.weights, tc.span); got != tc.want {
				t.Errorf("dataQualityScore(%d, %d, %d) = %v, want %v",
					tc.food, tc.weights, tc.span, got, tc.want)
			}
		})
	}
}

func TestUncertaintyKcal(t *testing.T) {
	if got := uncertaintyKcal(0); got != 300 {
		t.Errorf("uncertainty at quality 0 = %d, want full base 300", got)
	}
	if got := uncertaintyKcal(1); got != 99 {
		t.Errorf("uncertainty at quality 1 = %d, want 99", got)
	}
	if got := uncertaintyKcal(0.94); got != 111 {
		t.Errorf("uncertainty at quality 0.94 = %d, want 111", got)
	}

	// Better data must never widen the interval, and the band stays inside
	// [minUncertaintyKcal, baseUncertaintyKcal].
	prev := uncertaintyKcal(0)
	for q := 0.01; q <= 1.0; q += 0.01 {
		u := uncertaintyKcal(q)
		if u > prev {
			t.Fatalf("uncertainty rose from %d to %d as quality improved to %.2f", prev, u, q)
		}
		if u < minUncertaintyKcal || u > int(baseUncertaintyKcal) {
			t.Fatalf("uncertainty %d at quality %.2f outside [%d, %v]",
				u, q, minUncertaintyKcal, baseUncertaintyKcal)
		}
		prev = u
	}
}
