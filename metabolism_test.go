package main

import (
	"math"
	"testing"
	"time"
)

func weekRow(t *testing.T, date string, avgKG float64) weeklyWeightRow {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad date %q: %v", date, err)
	}
	return weeklyWeightRow{WeekStart: DateOnly{d}, AvgKG: avgKG}
}

func TestWeeklyDeltas(t *testing.T) {
	rows := []weeklyWeightRow{
		weekRow(t, "2026-06-01", 84.3),
		weekRow(t, "2026-06-08", 83.9),
		weekRow(t, "2026-06-15", 83.95),
		weekRow(t, "2026-06-22", 83.4),
	}

	got := weeklyDeltas(rows)
	want := []float64{-0.4, 0.05, -0.55}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("delta[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWeeklyDeltas_TooFewBuckets(t *testing.T) {
	if got := weeklyDeltas(nil); got != nil {
		t.Errorf("weeklyDeltas(nil) = %v, want nil", got)
	}
	one := []weeklyWeightRow{weekRow(t, "2026-06-01", 84.3)}
	if got := weeklyDeltas(one); got != nil {
		t.Errorf("weeklyDeltas(one bucket) = %v, want nil", got)
	}
}

func TestCurrentDeficitKcal(t *testing.T) {
	t.Run("uses latest estimate", func(t *testing.T) {
		s := &userSettings{CalorieBudget: 1900}
		latest := &tdeeEstimate{TDEEKcal: 2450}
		if got := currentDeficitKcal(s, latest); got != 550 {
			t.Errorf("deficit = %d, want 550", got)
		}
	})

	t.Run("falls back to profile baseline", func(t *testing.T) {
		s := makeSettings("male", 1990, 180, 82, 77, "moderate", futureTargetDate())
		s.CalorieBudget = 2000
		_, baseline, _, _, ok := computeBaselineTDEE(s)
		if !ok {
			t.Fatal("baseline TDEE should be computable for a complete profile")
		}
		if got := currentDeficitKcal(s, nil); got != baseline-2000 {
			t.Errorf("deficit = %d, want %d", got, baseline-2000)
		}
	})

	t.Run("surplus floors at zero", func(t *testing.T) {
		s := &userSettings{CalorieBudget: 2600}
		if got := currentDeficitKcal(s, &tdeeEstimate{TDEEKcal: 2000}); got != 0 {
			t.Errorf("deficit = %d, want 0", got)
		}
	})

	t.Run("no TDEE source at all", func(t *testing.T) {
		s := &userSettings{CalorieBudget: 1800}
		if got := currentDeficitKcal(s, nil); got != 0 {
			t.Errorf("deficit = %d, want 0", got)
		}
	})
}
