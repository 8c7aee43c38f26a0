package main

import (
	"fmt"
	"math"
	"slices"
	"time"
)

/* ─── Detection constants ────────────────────────────────────────────── */

// Adaptation detection heuristics. The 15 kcal/kg "explained drop" rule and
// the 7700 kcal/kg plateau rule below are independent approximations tuned
// separately — do not assume they reconcile with each other or with the
// estimator's tissue constants.
const (
	// minAdaptationEstimates is how many TDEE estimates the history needs
	// before an oldest-vs-newest comparison means anything.
	minAdaptationEstimates = 3

	// explainedDropKcalPerKG is how much TDEE reduction each kg of body-mass
	// change is expected to explain on its own; only the remainder counts
	// as adaptation.
	explainedDropKcalPerKG = 15.0

	// Adaptive-drop thresholds, as a percentage of the oldest TDEE.
	adaptationFirePct   = 10.0
	adaptationMediumPct = 15.0
	adaptationHighPct   = 20.0

	// reduceDeficitFloorKcal: below this deficit, cutting further intake is
	// not the lever to pull — suggest activity instead.
	reduceDeficitFloorKcal = 500
)

// Plateau detection heuristics.
const (
	// plateauWindowWeeks is how many recent weekly deltas are summed.
	plateauWindowWeeks = 3

	// plateauStallBandKG: total movement inside ±this across the window
	// counts as "the scale isn't moving".
	plateauStallBandKG = 0.2

	// plateauMinDeficitKcal: a plateau is only meaningful when a real
	// deficit is being run; below this the stall is expected behaviour.
	plateauMinDeficitKcal = 300

	// plateauKcalPerKG converts the current deficit into an expected weekly
	// weight change. Deliberately its own constant, tuned independently of
	// the estimator's tissue mix.
	plateauKcalPerKG = 7700.0
)

/* ─── Closed enums ───────────────────────────────────────────────────── */

// goalType is the user's current goal. The detectors only ever fire for
// fat-loss — adaptation and plateaus are expected (or welcome) otherwise.
type goalType string

const (
	goalFatLoss     goalType = "fat_loss"
	goalMaintenance goalType = "maintenance"
	goalMuscleGain  goalType = "muscle_gain"
)

// eventKind tags what a detector found.
type eventKind string

const (
	kindAdaptation eventKind = "adaptation"
	kindPlateau    eventKind = "plateau"
	kindRecovery   eventKind = "recovery"
)

// severity grades how strongly an event fired.
type severity string

const (
	severityLow    severity = "low"
	severityMedium severity = "medium"
	severityHigh   severity = "high"
)

// severityRank orders severities for primary-event selection: high first.
var severityRank = map[severity]int{
	severityHigh:   0,
	severityMedium: 1,
	severityLow:    2,
}

// suggestedAction is the single intervention attached to an event.
type suggestedAction string

const (
	actionDietBreak        suggestedAction = "diet_break"
	actionRefeed           suggestedAction = "refeed"
	actionReduceDeficit    suggestedAction = "reduce_deficit"
	actionIncreaseActivity suggestedAction = "increase_activity"
	actionPatience         suggestedAction = "patience"
)

// actionDescriptions is the user-facing one-liner for each action.
var actionDescriptions = map[suggestedAction]string{
	actionDietBreak:        "Eat at maintenance calories for 1-2 weeks, then resume the deficit.",
	actionRefeed:           "Add 1-2 maintenance-calorie days per week to take pressure off.",
	actionReduceDeficit:    "Shrink the daily deficit — the current one is costing more than it returns.",
	actionIncreaseActivity: "Add low-intensity activity rather than cutting intake further.",
	actionPatience:         "Nothing needs changing — keep logging and let the trend develop.",
}

// overallStatus is the roll-up the status endpoint reports.
type overallStatus string

const (
	statusHealthy overallStatus = "healthy"
	statusConcern overallStatus = "concern"
)

/* ─── Event & status types ───────────────────────────────────────────── */

// adaptationEvent is one detector finding. Computed fresh on every call and
// never fed back in — only the estimate history and weekly deltas are inputs.
type adaptationEvent struct {
	Kind              eventKind       `json:"kind"`
	DetectedAt        time.Time       `json:"detected_at"`
	Severity          severity        `json:"severity"`
	SuggestedAction   suggestedAction `json:"suggested_action"`
	ActionDescription string          `json:"action_description"`

	// Shared numeric context: the observed weight change over whichever
	// window the detector examined.
	TotalWeightChangeKG float64 `json:"total_weight_change_kg"`

	// Adaptation-specific fields.
	OldestTDEEKcal    int     `json:"oldest_tdee_kcal,omitempty"`
	CurrentTDEEKcal   int     `json:"current_tdee_kcal,omitempty"`
	RawDropPct        float64 `json:"raw_drop_pct,omitempty"`
	AdaptiveDropPct   float64 `json:"adaptive_drop_pct,omitempty"`
	ExpectedDropKcal  float64 `json:"expected_drop_kcal,omitempty"`
	EstimatesAnalyzed int     `json:"estimates_analyzed,omitempty"`

	// Plateau-specific fields.
	ExpectedChangeKG float64 `json:"expected_change_kg,omitempty"`
	WeeksAnalyzed    int     `json:"weeks_analyzed,omitempty"`
}

// adaptationStatus is the combined report for GET /api/metabolism/status.
type adaptationStatus struct {
	HasAdaptation bool              `json:"has_adaptation"`
	HasPlateau    bool              `json:"has_plateau"`
	PrimaryEvent  *adaptationEvent  `json:"primary_event"`
	AllEvents     []adaptationEvent `json:"all_events"`
	Status        overallStatus     `json:"status"`
	Message       string            `json:"message"`
}

/* ─── Detectors ──────────────────────────────────────────────────────── */

// detectMetabolicAdaptation compares the oldest and newest TDEE estimates in
// the history and asks how much of the drop is NOT explained by the weight
// the user lost. Each kg of body-mass change is expected to move TDEE by
// explainedDropKcalPerKG on its own; only the unexplained remainder counts.
// Returns nil unless the goal is fat loss, the history holds at least
// minAdaptationEstimates entries, and the adaptive component reaches
// adaptationFirePct of the oldest TDEE.
func detectMetabolicAdaptation(history []tdeeEstimate, goal goalType, currentDeficit int) *adaptationEvent {
	if goal != goalFatLoss || len(history) < minAdaptationEstimates {
		return nil
	}

	sorted := sortedNewestFirst(history)
	current := sorted[0]
	oldest := sorted[len(sorted)-1]
	if oldest.TDEEKcal <= 0 {
		return nil
	}

	rawDropKcal := float64(oldest.TDEEKcal - current.TDEEKcal)
	rawDropPct := rawDropKcal / float64(oldest.TDEEKcal) * 100

	var totalWeightChange float64
	for _, e := range sorted {
		totalWeightChange += e.WeightChangeKG
	}
	expectedDropKcal := math.Abs(totalWeightChange) * explainedDropKcalPerKG

	adaptiveDropKcal := math.Max(0, rawDropKcal-expectedDropKcal)
	adaptiveDropPct := adaptiveDropKcal / float64(oldest.TDEEKcal) * 100
	if adaptiveDropPct < adaptationFirePct {
		return nil
	}

	sev := severityLow
	switch {
	case adaptiveDropPct >= adaptationHighPct:
		sev = severityHigh
	case adaptiveDropPct >= adaptationMediumPct:
		sev = severityMedium
	}

	// First matching rule wins: the drop size picks the intervention, and
	// only a still-aggressive deficit makes "eat a bit more" the answer.
	action := actionIncreaseActivity
	switch {
	case adaptiveDropPct >= adaptationHighPct:
		action = actionDietBreak
	case adaptiveDropPct >= adaptationMediumPct:
		action = actionRefeed
	case currentDeficit >= reduceDeficitFloorKcal:
		action = actionReduceDeficit
	}

	return &adaptationEvent{
		Kind:                kindAdaptation,
		DetectedAt:          time.Now().UTC(),
		Severity:            sev,
		SuggestedAction:     action,
		ActionDescription:   actionDescriptions[action],
		TotalWeightChangeKG: round2(totalWeightChange),
		OldestTDEEKcal:      oldest.TDEEKcal,
		CurrentTDEEKcal:     current.TDEEKcal,
		RawDropPct:          round2(rawDropPct),
		AdaptiveDropPct:     round2(adaptiveDropPct),
		ExpectedDropKcal:    math.Round(expectedDropKcal),
		EstimatesAnalyzed:   len(sorted),
	}
}

// detectPlateau checks whether the scale has stopped moving despite a real
// deficit. Sums the most recent plateauWindowWeeks weekly deltas
// (weeklyDeltas is chronological, oldest first): total movement inside
// ±plateauStallBandKG with a deficit above plateauMinDeficitKcal is a
// plateau. Returns nil unless the goal is fat loss and enough weeks exist.
func detectPlateau(weeklyDeltas []float64, goal goalType, currentDeficit int) *adaptationEvent {
	if goal != goalFatLoss || len(weeklyDeltas) < plateauWindowWeeks {
		return nil
	}

	recent := weeklyDeltas[len(weeklyDeltas)-plateauWindowWeeks:]
	var totalChange float64
	for _, d := range recent {
		totalChange += d
	}

	if math.Abs(totalChange) >= plateauStallBandKG || currentDeficit <= plateauMinDeficitKcal {
		return nil
	}

	expectedWeekly := -float64(currentDeficit) / plateauKcalPerKG
	expectedTotal := expectedWeekly * plateauWindowWeeks

	return &adaptationEvent{
		Kind:                kindPlateau,
		DetectedAt:          time.Now().UTC(),
		Severity:            severityMedium,
		SuggestedAction:     actionDietBreak,
		ActionDescription:   actionDescriptions[actionDietBreak],
		TotalWeightChangeKG: round2(totalChange),
		ExpectedChangeKG:    round2(expectedTotal),
		WeeksAnalyzed:       plateauWindowWeeks,
	}
}

// getAdaptationStatus runs both detectors and rolls the findings into one
// report: events sorted most-severe-first, the first as primary, and an
// overall healthy/concern status with a short human message.
func getAdaptationStatus(history []tdeeEstimate, weeklyDeltas []float64, goal goalType, currentDeficit int) adaptationStatus {
	// Empty slice (not nil) so the JSON field is always an array.
	events := []adaptationEvent{}

	adaptation := detectMetabolicAdaptation(history, goal, currentDeficit)
	if adaptation != nil {
		events = append(events, *adaptation)
	}
	plateau := detectPlateau(weeklyDeltas, goal, currentDeficit)
	if plateau != nil {
		events = append(events, *plateau)
	}

	slices.SortStableFunc(events, func(a, b adaptationEvent) int {
		return severityRank[a.Severity] - severityRank[b.Severity]
	})

	status := adaptationStatus{
		HasAdaptation: adaptation != nil,
		HasPlateau:    plateau != nil,
		AllEvents:     events,
		Status:        statusHealthy,
		Message:       "No adaptation or plateau detected — keep logging.",
	}
	if len(events) > 0 {
		status.PrimaryEvent = &events[0]
		status.Status = statusConcern
		status.Message = statusMessage(events[0])
	}
	return status
}

// statusMessage builds the one-line summary for the highest-priority event.
func statusMessage(ev adaptationEvent) string {
	switch ev.Kind {
	case kindPlateau:
		return fmt.Sprintf("Weight has stalled for %d weeks despite a deficit — suggested: %s.",
			ev.WeeksAnalyzed, ev.SuggestedAction)
	default:
		return fmt.Sprintf("Expenditure is down %.1f%% beyond what weight change explains — suggested: %s.",
			ev.AdaptiveDropPct, ev.SuggestedAction)
	}
}

// sortedNewestFirst returns a copy of history ordered newest first by
// CreatedAt. Unpersisted estimates (nil CreatedAt) sort as oldest; ties keep
// their given order.
func sortedNewestFirst(history []tdeeEstimate) []tdeeEstimate {
	out := slices.Clone(history)
	slices.SortStableFunc(out, func(a, b tdeeEstimate) int {
		return estimateTime(b).Compare(estimateTime(a))
	})
	return out
}

func estimateTime(e tdeeEstimate) time.Time {
	if e.CreatedAt != nil {
		return *e.CreatedAt
	}
	return time.Time{}
}
