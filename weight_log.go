package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// validWeightSources is the single source of truth for where a reading can
// come from — also used for input validation on create/update.
var validWeightSources = map[string]bool{
	"manual":     true,
	"scale_sync": true,
	"import":     true,
}

// getWeightLog returns weight readings for the authenticated user within
// [start, end] (whole days, inclusive).
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no readings exist in the range.
func (h *Handler) getWeightLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	start := c.Query("start")
	end := c.Query("end")

	if start == "" || end == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return
	}
	if _, err := time.Parse("2006-01-02", start); err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	if _, err := time.Parse("2006-01-02", end); err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if start > end {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}

	entries, err := queryMany[weightEntry](h.db, c,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID
		   AND measured_at >= @start::date
		   AND measured_at < @end::date + 1
		 ORDER BY measured_at ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch weight log")
		return
	}
	// Ensure empty array (not null) in JSON
	if entries == nil {
		entries = []weightEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// createWeightEntry records a new scale reading. Every reading is kept as its
// own row — several weigh-ins on the same day are all retained, and the trend
// smoother decides what to make of the noise.
// POST /api/weight-log. Body: { "weight_kg": 82.4, "measured_at"?: RFC3339,
// "source"?: "manual" }. measured_at defaults to now, source to "manual".
// Backdated readings are fine; future-dated ones are rejected.
func (h *Handler) createWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		WeightKG   float64 `json:"weight_kg"`
		MeasuredAt *string `json:"measured_at"`
		Source     *string `json:"source"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.WeightKG <= 0 || body.WeightKG > 500 {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 500")
		return
	}

	measuredAt := time.Now().UTC()
	if body.MeasuredAt != nil {
		t, err := time.Parse(time.RFC3339, *body.MeasuredAt)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid measured_at, expected RFC3339 timestamp")
			return
		}
		if t.After(time.Now().UTC()) {
			apiError(c, http.StatusBadRequest, "measured_at must not be in the future")
			return
		}
		measuredAt = t
	}

	source := "manual"
	if body.Source != nil {
		if !validWeightSources[*body.Source] {
			apiError(c, http.StatusBadRequest, "source must be one of: manual, scale_sync, import")
			return
		}
		source = *body.Source
	}

	entry, err := queryOne[weightEntry](h.db, c,
		`INSERT INTO weight_log (user_id, measured_at, weight_kg, source)
		 VALUES (@userID, @measuredAt, @weightKG, @source)
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "measuredAt": measuredAt, "weightKG": body.WeightKG, "source": source})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create weight entry")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// updateWeightEntry partially updates an existing weight reading.
// PUT /api/weight-log/:id. Body: { "measured_at"?, "weight_kg"?, "source"? }.
// Uses COALESCE so omitted fields keep their current values (same pattern as
// updateFoodLogItem).
func (h *Handler) updateWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		MeasuredAt *string  `json:"measured_at"`
		WeightKG   *float64 `json:"weight_kg"`
		Source     *string  `json:"source"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.MeasuredAt != nil {
		t, err := time.Parse(time.RFC3339, *body.MeasuredAt)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid measured_at, expected RFC3339 timestamp")
			return
		}
		if t.After(time.Now().UTC()) {
			apiError(c, http.StatusBadRequest, "measured_at must not be in the future")
			return
		}
	}
	if body.WeightKG != nil && (*body.WeightKG <= 0 || *body.WeightKG > 500) {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 500")
		return
	}
	if body.Source != nil && !validWeightSources[*body.Source] {
		apiError(c, http.StatusBadRequest, "source must be one of: manual, scale_sync, import")
		return
	}

	entry, err := queryOne[weightEntry](h.db, c,
		`UPDATE weight_log SET
			measured_at = COALESCE(@measuredAt::timestamptz, measured_at),
			weight_kg   = COALESCE(@weightKG, weight_kg),
			source      = COALESCE(@source, source)
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{"id": id, "userID": userID, "measuredAt": body.MeasuredAt, "weightKG": body.WeightKG, "source": body.Source})
	if err != nil {
		// Distinguish a missing row from a real DB failure so callers get an
		// actionable status code rather than a misleading 404.
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "weight entry not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update weight entry")
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

// deleteWeightEntry removes a weight reading by ID.
// DELETE /api/weight-log/:id. Returns 204 on success, 404 if not found.
// Ownership is enforced by requiring both id and user_id to match.
func (h *Handler) deleteWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete weight entry")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "weight entry not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// getWeightTrend returns the smoothed weight trend over the last N days.
// GET /api/weight-log/trend?days=N (default 14, clamped to 7..90).
// Responds 200 with {"insufficient_data": true} when no readings exist in
// the window — a fresh account is not an error.
func (h *Handler) getWeightTrend(c *gin.Context) {
	userID := c.GetInt("user_id")

	days := 14
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid days, expected an integer")
			return
		}
		days = n
	}
	days = clampInt(days, 7, 90)

	until := time.Now().UTC()
	since := until.AddDate(0, 0, -days)
	entries, err := queryMany[weightEntry](h.db, c,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND measured_at >= @since AND measured_at <= @until
		 ORDER BY measured_at ASC`,
		pgx.NamedArgs{"userID": userID, "since": since, "until": until})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch weight log")
		return
	}

	trend := computeWeightTrend(entries)
	if trend == nil {
		c.JSON(http.StatusOK, gin.H{"insufficient_data": true, "weight_log_count": len(entries), "days": days})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trend":            trend,
		"weight_log_count": len(entries),
		"days":             days,
	})
}
