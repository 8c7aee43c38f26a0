package main

import "math"

/* ─── Energy-balance constants ───────────────────────────────────────── */

// Minimum data before an estimate is attempted at all. Below these the
// estimator returns nil ("keep logging") instead of a shaky number.
const (
	minFoodLogDays = 5
	minWeightLogs  = 2
	minSpanDays    = 1
)

// Tissue energy densities and the assumed composition of weight change.
// Heuristic averages, not physiology: losing weight is treated as 75% fat /
// 25% lean tissue, gaining as 50/50.
const (
	fatTissueKcalPerKG  = 7700.0
	leanTissueKcalPerKG = 1800.0
	losingFatRatio      = 0.75
	gainingFatRatio     = 0.50
)

// Hard bounds on any TDEE this engine will report. Values outside this range
// mean the inputs are garbage, not that the user burns 12000 kcal/day.
const (
	tdeeFloorKcal = 1000
	tdeeCeilKcal  = 6000
)

// Data-quality targets and weights. Each sub-score is capped at 1.0 against
// its target, then the three are blended: food-log density matters most,
// weight-log density second, window length least.
const (
	foodLogTargetCount   = 14.0
	weightLogTargetCount = 7.0
	spanTargetDays       = 14.0

	foodLogQualityWeight   = 0.50
	weightLogQualityWeight = 0.30
	spanQualityWeight      = 0.20
)

// Uncertainty scaling: a zero-quality window gets the full ±300 kcal band,
// a perfect window shrinks it by 67%, and no estimate ever claims to be
// tighter than ±60 kcal — self-reported logs don't support that.
const (
	baseUncertaintyKcal     = 300.0
	minUncertaintyKcal      = 60
	uncertaintyQualityScale = 0.67
)

/* ─── Estimator ──────────────────────────────────────────────────────── */

// estimateTDEE runs the energy-balance estimate over one analysis window:
// smooth the first and second halves of the weight series into start/end
// weights, convert the weight change into stored energy, and back out the
// average daily expenditure from logged intake. Returns nil when the window
// has too little data to say anything (fewer than minFoodLogDays logged
// days, fewer than minWeightLogs readings, or under a day of span) — that
// is a "keep logging" signal, not an error.
func estimateTDEE(intake []dailyIntakeSummary, entries []weightEntry) *tdeeEstimate {
	if len(intake) < minFoodLogDays || len(entries) < minWeightLogs {
		return nil
	}

	sorted := sortedByMeasuredAt(entries)
	span := daysBetween(sorted[0].MeasuredAt, sorted[len(sorted)-1].MeasuredAt)
	if span < minSpanDays {
		return nil
	}
	days := max(span, 1)

	firstHalf, secondHalf := splitHalves(sorted)
	startWeight := smoothWeight(firstHalf, defaultSmoothingAlpha)
	endWeight := smoothWeight(secondHalf, defaultSmoothingAlpha)
	weightChange := endWeight - startWeight

	var totalIntake float64
	for _, day := range intake {
		totalIntake += float64(day.TotalCalories)
	}
	avgIntake := totalIntake / float64(len(intake))

	// Energy content of the weight that was gained or lost, per kg, based on
	// the assumed tissue mix for the direction of change.
	fatRatio := gainingFatRatio
	if weightChange < 0 {
		fatRatio = losingFatRatio
	}
	caloricContent := fatRatio*fatTissueKcalPerKG + (1-fatRatio)*leanTissueKcalPerKG

	// expenditure ≈ intake − (stored-energy change ÷ time)
	dailyEnergyChange := weightChange * caloricContent / float64(days)
	tdee := clampInt(int(math.Round(avgIntake-dailyEnergyChange)), tdeeFloorKcal, tdeeCeilKcal)

	quality := dataQualityScore(len(intake), len(sorted), days)
	uncertainty := uncertaintyKcal(quality)

	return &tdeeEstimate{
		TDEEKcal:           tdee,
		ConfidenceLowKcal:  clampInt(tdee-uncertainty, tdeeFloorKcal, tdeeCeilKcal),
		ConfidenceHighKcal: clampInt(tdee+uncertainty, tdeeFloorKcal, tdeeCeilKcal),
		UncertaintyKcal:    uncertainty,
		DataQualityScore:   quality,
		WeightChangeKG:     round2(weightChange),
		AvgDailyIntakeKcal: math.Round(avgIntake*10) / 10,
		StartWeightKG:      startWeight,
		EndWeightKG:        endWeight,
		DaysAnalyzed:       days,
		FoodLogCount:       len(intake),
		WeightLogCount:     len(sorted),
	}
}

// splitHalves divides a chronological series at the midpoint index. With at
// least two entries each half is guaranteed non-empty.
func splitHalves(sorted []weightEntry) (first, second []weightEntry) {
	mid := len(sorted) / 2
	if mid == 0 {
		mid = 1
	}
	return sorted[:mid], sorted[mid:]
}

// dataQualityScore blends three capped sub-scores — food-log density,
// weight-log density, and window coverage — into a single 0–1 score.
// Rounded to 2 decimal places: it's a quality grade, not a measurement.
func dataQualityScore(foodDays, weightLogs, spanDays int) float64 {
	foodScore := math.Min(1, float64(foodDays)/foodLogTargetCount)
	weightScore := math.Min(1, float64(weightLogs)/weightLogTargetCount)
	spanScore := math.Min(1, float64(spanDays)/spanTargetDays)

	score := foodLogQualityWeight*foodScore +
		weightLogQualityWeight*weightScore +
		spanQualityWeight*spanScore
	return math.Round(score*100) / 100
}

// uncertaintyKcal converts a data-quality score into the half-width of the
// confidence interval: full base width at quality 0, shrunk by
// uncertaintyQualityScale at quality 1, never below the floor.
func uncertaintyKcal(quality float64) int {
	factor := 1 - uncertaintyQualityScale*quality
	u := int(math.Round(baseUncertaintyKcal * factor))
	if u < minUncertaintyKcal {
		return minUncertaintyKcal
	}
	return u
}

// clampInt pins v into [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
