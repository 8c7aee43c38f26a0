package main

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// Analysis window bounds and status-report inputs.
const (
	// defaultAnalysisDays is the window when ?days= is omitted; requests are
	// clamped to [minAnalysisDays, maxAnalysisDays]. Under a week the halves
	// split degenerates; past ~3 months the window mixes eras of the user.
	defaultAnalysisDays = 14
	minAnalysisDays     = 7
	maxAnalysisDays     = 90

	// statusHistoryLimit is how many recent estimates the status report
	// compares across — about three months of biweekly analyses.
	statusHistoryLimit = 6

	// statusWeeklyWeeks is how far back the weekly scale deltas reach; two
	// weeks of slack over the plateau window so edge buckets don't starve it.
	statusWeeklyWeeks = plateauWindowWeeks + 2

	defaultHistoryLimit = 12
	maxHistoryLimit     = 100
)

// analyzeMetabolism runs the energy-balance estimator over the last N days of
// logs and persists the result as a new tdee_estimates row.
// POST /api/metabolism/analyze?days=N (default 14, clamped to 7..90).
// Responds 200 with {"insufficient_data": true} plus the observed counts when
// the window can't support an estimate — thin logs are not an error.
func (h *Handler) analyzeMetabolism(c *gin.Context) {
	userID := c.GetInt("user_id")

	days := defaultAnalysisDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid days, expected an integer")
			return
		}
		days = n
	}
	days = clampInt(days, minAnalysisDays, maxAnalysisDays)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")

	summaries, err := fetchIntakeSummaries(h, c, userID, startStr, endStr)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch food log")
		return
	}

	// Bounded on both ends so a future-dated weigh-in can't stretch the window.
	entries, err := queryMany[weightEntry](h.db, c,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND measured_at >= @start AND measured_at <= @end
		 ORDER BY measured_at ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch weight log")
		return
	}

	est := estimateTDEE(summaries, entries)
	if est == nil {
		c.JSON(http.StatusOK, gin.H{
			"insufficient_data": true,
			"days":              days,
			"food_log_days":     len(summaries),
			"weight_log_count":  len(entries),
		})
		return
	}

	saved, err := queryOne[tdeeEstimate](h.db, c,
		`INSERT INTO tdee_estimates (
			user_id, tdee_kcal, confidence_low_kcal, confidence_high_kcal,
			uncertainty_kcal, data_quality_score, weight_change_kg,
			avg_daily_intake_kcal, start_weight_kg, end_weight_kg,
			days_analyzed, food_log_count, weight_log_count,
			window_start, window_end)
		 VALUES (
			@userID, @tdeeKcal, @confidenceLow, @confidenceHigh,
			@uncertainty, @dataQuality, @weightChange,
			@avgIntake, @startWeight, @endWeight,
			@daysAnalyzed, @foodLogCount, @weightLogCount,
			@windowStart, @windowEnd)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID":         userID,
			"tdeeKcal":       est.TDEEKcal,
			"confidenceLow":  est.ConfidenceLowKcal,
			"confidenceHigh": est.ConfidenceHighKcal,
			"uncertainty":    est.UncertaintyKcal,
			"dataQuality":    est.DataQualityScore,
			"weightChange":   est.WeightChangeKG,
			"avgIntake":      est.AvgDailyIntakeKcal,
			"startWeight":    est.StartWeightKG,
			"endWeight":      est.EndWeightKG,
			"daysAnalyzed":   est.DaysAnalyzed,
			"foodLogCount":   est.FoodLogCount,
			"weightLogCount": est.WeightLogCount,
			"windowStart":    startStr,
			"windowEnd":      endStr,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to save estimate")
		return
	}

	c.JSON(http.StatusOK, saved)
}

// getEstimateHistory returns past analysis runs, newest first.
// GET /api/metabolism/history?limit=N (default 12, max 100).
func (h *Handler) getEstimateHistory(c *gin.Context) {
	userID := c.GetInt("user_id")

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid limit, expected an integer")
			return
		}
		limit = n
	}
	limit = clampInt(limit, 1, maxHistoryLimit)

	history, err := queryMany[tdeeEstimate](h.db, c,
		`SELECT * FROM tdee_estimates
		 WHERE user_id = @userID
		 ORDER BY created_at DESC
		 LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch estimate history")
		return
	}
	// Ensure empty array (not null) in JSON
	if history == nil {
		history = []tdeeEstimate{}
	}

	c.JSON(http.StatusOK, history)
}

// getMetabolismStatus runs both detectors over recent history and reports the
// combined adaptation/plateau picture.
// GET /api/metabolism/status.
func (h *Handler) getMetabolismStatus(c *gin.Context) {
	userID := c.GetInt("user_id")

	report, err := fetchMetabolismReport(h, c, userID)
	if err != nil {
		log.Printf("[metabolism] status failed for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to build metabolism status")
		return
	}

	c.JSON(http.StatusOK, report.status)
}

/* ─── Status assembly ────────────────────────────────────────────────── */

// metabolismReport bundles the detector output with the inputs that produced
// it, for handlers that need both (the status endpoint and the coach).
type metabolismReport struct {
	status   adaptationStatus
	latest   *tdeeEstimate
	settings userSettings
	deficit  int
}

// fetchMetabolismReport gathers settings, recent estimates and weekly scale
// deltas for a user and runs the detectors over them.
func fetchMetabolismReport(h *Handler, c *gin.Context, userID int) (*metabolismReport, error) {
	settings, err := queryOne[userSettings](h.db, c,
		"SELECT * FROM user_settings WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, fmt.Errorf("fetch settings: %w", err)
	}

	history, err := queryMany[tdeeEstimate](h.db, c,
		`SELECT * FROM tdee_estimates
		 WHERE user_id = @userID
		 ORDER BY created_at DESC
		 LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": statusHistoryLimit})
	if err != nil {
		return nil, fmt.Errorf("fetch estimate history: %w", err)
	}

	deltas, err := fetchWeeklyDeltas(h, c, userID, statusWeeklyWeeks)
	if err != nil {
		return nil, fmt.Errorf("fetch weekly weights: %w", err)
	}

	var latest *tdeeEstimate
	if len(history) > 0 {
		latest = &history[0]
	}
	deficit := currentDeficitKcal(&settings, latest)

	return &metabolismReport{
		status:   getAdaptationStatus(history, deltas, goalType(settings.Goal), deficit),
		latest:   latest,
		settings: settings,
		deficit:  deficit,
	}, nil
}

/* ─── Detector inputs ────────────────────────────────────────────────── */

// fetchWeeklyDeltas returns chronological week-over-week changes in average
// scale weight over roughly the last `weeks` weeks. SQL buckets readings into
// calendar weeks and averages them; Go diffs consecutive buckets. Logged
// weeks with a gap between them still diff as neighbours — a silent week
// cannot contribute a delta of its own.
func fetchWeeklyDeltas(h *Handler, c *gin.Context, userID, weeks int) ([]float64, error) {
	until := time.Now().UTC()
	since := until.AddDate(0, 0, -7*weeks)
	rows, err := queryMany[weeklyWeightRow](h.db, c,
		`SELECT
			date_trunc('week', measured_at)::date AS week_start,
			AVG(weight_kg) AS avg_kg
		 FROM weight_log
		 WHERE user_id = @userID AND measured_at >= @since AND measured_at <= @until
		 GROUP BY 1
		 ORDER BY 1 ASC`,
		pgx.NamedArgs{"userID": userID, "since": since, "until": until})
	if err != nil {
		return nil, err
	}
	return weeklyDeltas(rows), nil
}

// weeklyDeltas converts chronological weekly averages into consecutive
// week-over-week changes, oldest first. Fewer than two buckets yields nil.
func weeklyDeltas(rows []weeklyWeightRow) []float64 {
	if len(rows) < 2 {
		return nil
	}
	deltas := make([]float64, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		deltas = append(deltas, round2(rows[i].AvgKG-rows[i-1].AvgKG))
	}
	return deltas
}

// currentDeficitKcal is how far below expenditure the user's calorie budget
// sits: the latest adaptive estimate when one exists, the profile baseline
// otherwise. Floored at zero — a surplus is not a deficit, and with no TDEE
// source at all there is nothing to claim.
func currentDeficitKcal(s *userSettings, latest *tdeeEstimate) int {
	tdee := 0
	if latest != nil {
		tdee = latest.TDEEKcal
	} else if _, baseline, _, _, ok := computeBaselineTDEE(s); ok {
		tdee = baseline
	}
	if tdee == 0 {
		return 0
	}
	deficit := tdee - s.CalorieBudget
	if deficit < 0 {
		return 0
	}
	return deficit
}
