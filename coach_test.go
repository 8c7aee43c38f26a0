package main

import (
	"strings"
	"testing"
	"time"
)

func assertContainsAll(t *testing.T, prompt string, wants []string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, prompt)
		}
	}
}

func TestBuildCoachPrompt_AdaptationEvent(t *testing.T) {
	est := tdeeEstimate{
		TDEEKcal:           2200,
		ConfidenceLowKcal:  2101,
		ConfidenceHighKcal: 2299,
		DataQualityScore:   0.9,
		WeightChangeKG:     -1.2,
		AvgDailyIntakeKcal: 1850,
		DaysAnalyzed:       14,
	}
	event := adaptationEvent{
		Kind:              kindAdaptation,
		DetectedAt:        time.Now().UTC(),
		Severity:          severityLow,
		SuggestedAction:   actionReduceDeficit,
		ActionDescription: actionDescriptions[actionReduceDeficit],
		OldestTDEEKcal:    2500,
		CurrentTDEEKcal:   2200,
		RawDropPct:        12.0,
		AdaptiveDropPct:   10.2,
	}
	report := &metabolismReport{
		status: adaptationStatus{
			HasAdaptation: true,
			PrimaryEvent:  &event,
			AllEvents:     []adaptationEvent{event},
			Status:        statusConcern,
			Message:       "Metabolic adaptation detected.",
		},
		latest:   &est,
		settings: userSettings{Goal: "fat_loss", CalorieBudget: 1800},
		deficit:  520,
	}

	assertContainsAll(t, buildCoachPrompt(report), []string{
		"Goal: fat_loss",
		"Calorie budget: 1800 kcal/day",
		"Estimated daily deficit: 520 kcal",
		"Latest TDEE estimate: 2200 kcal/day (range 2101-2299, data quality 0.90)",
		"Window: 14 days, weight change -1.2 kg, average intake 1850 kcal/day",
		"adaptive TDEE drop 10.2% (from 2500 to 2200 kcal/day)",
		"reduce_deficit",
	})
}

func TestBuildCoachPrompt_PlateauEvent(t *testing.T) {
	est := tdeeEstimate{
		TDEEKcal:           2150,
		ConfidenceLowKcal:  2045,
		ConfidenceHighKcal: 2255,
		DataQualityScore:   0.82,
		WeightChangeKG:     -0.1,
		AvgDailyIntakeKcal: 1904.7,
		DaysAnalyzed:       21,
	}
	event := adaptationEvent{
		Kind:                kindPlateau,
		DetectedAt:          time.Now().UTC(),
		Severity:            severityMedium,
		SuggestedAction:     actionDietBreak,
		ActionDescription:   actionDescriptions[actionDietBreak],
		TotalWeightChangeKG: -0.1,
		ExpectedChangeKG:    -0.19,
		WeeksAnalyzed:       3,
	}
	report := &metabolismReport{
		status: adaptationStatus{
			HasPlateau:   true,
			PrimaryEvent: &event,
			AllEvents:    []adaptationEvent{event},
			Status:       statusConcern,
			Message:      "Weight-loss plateau detected.",
		},
		latest:   &est,
		settings: userSettings{Goal: "fat_loss", CalorieBudget: 1700},
		deficit:  450,
	}

	assertContainsAll(t, buildCoachPrompt(report), []string{
		"Window: 21 days, weight change -0.1 kg, average intake 1905 kcal/day",
		"weight moved -0.10 kg over 3 weeks (expected -0.19 kg)",
		"diet_break",
	})
}

func TestBuildCoachPrompt_NoData(t *testing.T) {
	report := &metabolismReport{
		status: adaptationStatus{
			AllEvents: []adaptationEvent{},
			Status:    statusHealthy,
			Message:   "No adaptation or plateau detected — keep logging.",
		},
		settings: userSettings{},
	}

	prompt := buildCoachPrompt(report)
	assertContainsAll(t, prompt, []string{
		"Goal: maintenance",
		"No TDEE estimate yet",
		"healthy",
	})
	if strings.Contains(prompt, "Detected:") {
		t.Errorf("prompt should not mention a detected event:\n%s", prompt)
	}
}
