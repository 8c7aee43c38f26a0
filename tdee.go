package main

import (
	"math"
	"time"
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// This is the single source of truth for valid activity levels — also used for
// input validation in patchUserSettings.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// Weight-change pace bounds in kg/week. The cap keeps the suggested budget
// out of crash-diet territory; the floor keeps maintenance-adjacent targets
// from producing a zero deficit.
const (
	maxPaceKGPerWeek = 0.9
	minPaceKGPerWeek = 0.1
)

// computeBaselineTDEE computes BMR (Mifflin-St Jeor), formula-based TDEE,
// suggested daily calorie budget, and weight-change pace (kg/week) from user
// profile settings. This is the profile-derived starting point shown before
// enough logs exist for the adaptive estimator to take over.
// Returns ok=false when any required profile field is nil, the target date
// is in the past (budget would be meaningless), or if age is implausible.
func computeBaselineTDEE(s *userSettings) (bmr, tdee, budget int, paceKGPerWeek float64, ok bool) {
	if s.Sex == nil || s.DateOfBirth == nil || s.HeightCM == nil ||
		s.WeightKG == nil || s.ActivityLevel == nil ||
		s.TargetWeightKG == nil || s.TargetDate == nil {
		return 0, 0, 0, 0, false
	}

	// Age derived from date of birth
	today := time.Now()
	age := today.Year() - s.DateOfBirth.Year()
	if today.Before(s.DateOfBirth.AddDate(age, 0, 0)) {
		age--
	}
	// Guard against implausible ages (e.g. DOB in the future, or over 130 years ago)
	if age < 0 || age > 130 {
		return 0, 0, 0, 0, false
	}

	// BMR via Mifflin-St Jeor: different constant for male vs female
	bmrF := 10**s.WeightKG + 6.25**s.HeightCM - 5*float64(age)
	if *s.Sex == "male" {
		bmrF += 5
	} else {
		bmrF -= 161
	}

	// TDEE: multiply BMR by activity level multiplier
	mult, found := activityMultipliers[*s.ActivityLevel]
	if !found {
		return 0, 0, 0, 0, false
	}
	tdeeF := bmrF * mult

	// Pace from target weight delta and time remaining
	weeksUntil := time.Until(s.TargetDate.Time).Hours() / 24 / 7
	if weeksUntil <= 0 {
		return 0, 0, 0, 0, false
	}
	pace := (*s.WeightKG - *s.TargetWeightKG) / weeksUntil
	if pace > maxPaceKGPerWeek {
		pace = maxPaceKGPerWeek
	}
	if pace < minPaceKGPerWeek {
		pace = minPaceKGPerWeek
	}

	// Budget = TDEE minus the daily deficit implied by pace (7700 kcal ≈ 1 kg fat).
	// Use math.Round to avoid systematic under-reporting from truncation.
	budgetF := tdeeF - pace*fatTissueKcalPerKG/7
	return int(math.Round(bmrF)), int(math.Round(tdeeF)), int(math.Round(budgetF)), pace, true
}

// populateBaselineTDEE fills the computed-only fields on s from the user's profile.
// No-ops if any required profile field is missing.
func populateBaselineTDEE(s *userSettings) {
	if bmr, tdee, budget, pace, ok := computeBaselineTDEE(s); ok {
		s.ComputedBMR = &bmr
		s.ComputedTDEE = &tdee
		s.ComputedBudget = &budget
		s.PaceKGPerWeek = &pace
	}
}
