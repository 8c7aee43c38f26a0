package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// validMealTypes is the set of allowed values for the meal_type enum.
// Reject unknown values with 400 rather than letting the DB return a cryptic 500.
var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

// getDailySummary returns food log items and computed totals for a given date.
// GET /api/food-log/daily?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailySummary(c *gin.Context) {
	userID := c.GetInt("user_id")
	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))

	// Validate date format before querying — an invalid value silently returns no rows.
	if _, err := time.Parse("2006-01-02", date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	args := pgx.NamedArgs{"userID": userID, "date": date}
	items, err := queryMany[foodLogItem](h.db, c,
		`SELECT * FROM food_log_items
		 WHERE user_id = @userID AND date = @date
		 ORDER BY created_at`, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch items")
		return
	}
	// Ensure items is an empty array (not null) in JSON
	if items == nil {
		items = []foodLogItem{}
	}

	settings, err := queryOne[userSettings](h.db, c,
		"SELECT * FROM user_settings WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch settings")
		return
	}

	var calories int
	var proteinG, carbsG, fatG float64
	for _, item := range items {
		calories += item.Calories
		if item.ProteinG != nil {
			proteinG += *item.ProteinG
		}
		if item.CarbsG != nil {
			carbsG += *item.CarbsG
		}
		if item.FatG != nil {
			fatG += *item.FatG
		}
	}

	populateBaselineTDEE(&settings)

	c.JSON(http.StatusOK, dailySummary{
		Date:          date,
		CalorieBudget: settings.CalorieBudget,
		Calories:      calories,
		CaloriesLeft:  settings.CalorieBudget - calories,
		ProteinG:      proteinG,
		CarbsG:        carbsG,
		FatG:          fatG,
		Items:         items,
		Settings:      settings,
	})
}

// getIntakeSummaries returns per-day food totals for an arbitrary date range.
// GET /api/food-log/summaries?start=YYYY-MM-DD&end=YYYY-MM-DD. Both required.
// Only days with logged items are returned (no gap-filling — the estimator
// counts logged days, and the frontend fills gaps itself).
func (h *Handler) getIntakeSummaries(c *gin.Context) {
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

	summaries, err := fetchIntakeSummaries(h, c, userID, start, end)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch summaries")
		return
	}
	if summaries == nil {
		summaries = []dailyIntakeSummary{}
	}

	c.JSON(http.StatusOK, summaries)
}

// fetchIntakeSummaries runs the per-day GROUP BY over food_log_items. Shared
// between the summaries endpoint and the metabolism analyzer, which feeds the
// rows straight into the estimator.
func fetchIntakeSummaries(h *Handler, c *gin.Context, userID int, start, end string) ([]dailyIntakeSummary, error) {
	return queryMany[dailyIntakeSummary](h.db, c,
		`SELECT
			date,
			SUM(calories) AS total_calories,
			COALESCE(SUM(protein_g), 0) AS protein_g,
			COALESCE(SUM(carbs_g),   0) AS carbs_g,
			COALESCE(SUM(fat_g),     0) AS fat_g,
			COUNT(*) AS item_count
		 FROM food_log_items
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 GROUP BY date
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
}

// getEarliestLogDate returns the earliest date the user has a food log entry.
// GET /api/food-log/earliest-date. Used by the frontend to compute the "All Time" range start.
// Returns { "date": "YYYY-MM-DD" } or { "date": null } if no entries exist.
func (h *Handler) getEarliestLogDate(c *gin.Context) {
	userID := c.GetInt("user_id")

	// SELECT MIN returns a nullable date — use *string to handle the NULL case.
	var result struct {
		Date *string `db:"date"`
	}
	rows, err := h.db.Query(c,
		`SELECT TO_CHAR(MIN(date), 'YYYY-MM-DD') AS date
		 FROM food_log_items WHERE user_id = @userID`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch earliest date")
		return
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&result.Date); err != nil {
			apiError(c, http.StatusInternalServerError, "failed to scan earliest date")
			return
		}
	}
	if err := rows.Err(); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to read earliest date")
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": result.Date})
}

// createFoodLogItem inserts a new food log entry.
// POST /api/food-log/items. Defaults date to today if omitted.
func (h *Handler) createFoodLogItem(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createFoodLogItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ItemName == "" {
		apiError(c, http.StatusBadRequest, "item_name is required")
		return
	}
	if body.MealType == "" {
		apiError(c, http.StatusBadRequest, "meal_type is required")
		return
	}
	// Validate against the enum; prevents a cryptic 500 from the DB constraint.
	if !validMealTypes[body.MealType] {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: breakfast, lunch, dinner, snack")
		return
	}
	if body.Date == "" {
		body.Date = time.Now().Format("2006-01-02")
	}

	item, err := queryOne[foodLogItem](h.db, c,
		`INSERT INTO food_log_items (user_id, date, item_name, meal_type, qty, uom, calories, protein_g, carbs_g, fat_g)
		 VALUES (@userID, @date, @itemName, @mealType, @qty, @uom, @calories, @proteinG, @carbsG, @fatG)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "date": body.Date, "itemName": body.ItemName,
			"mealType": body.MealType, "qty": body.Qty, "uom": body.Uom,
			"calories": body.Calories, "proteinG": body.ProteinG,
			"carbsG": body.CarbsG, "fatG": body.FatG,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create item")
		return
	}

	c.JSON(http.StatusCreated, item)
}

// updateFoodLogItem updates an existing food log entry.
// PUT /api/food-log/items/:id. Uses COALESCE so omitted fields keep their current value.
func (h *Handler) updateFoodLogItem(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		Date     *string  `json:"date"`
		ItemName *string  `json:"item_name"`
		MealType *string  `json:"meal_type"`
		Qty      *float64 `json:"qty"`
		Uom      *string  `json:"uom"`
		Calories *int     `json:"calories"`
		ProteinG *float64 `json:"protein_g"`
		CarbsG   *float64 `json:"carbs_g"`
		FatG     *float64 `json:"fat_g"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.MealType != nil && !validMealTypes[*body.MealType] {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: breakfast, lunch, dinner, snack")
		return
	}

	item, err := queryOne[foodLogItem](h.db, c,
		`UPDATE food_log_items SET
			date = COALESCE(@date, date),
			item_name = COALESCE(@itemName, item_name),
			meal_type = COALESCE(@mealType, meal_type),
			qty = COALESCE(@qty, qty),
			uom = COALESCE(@uom, uom),
			calories = COALESCE(@calories, calories),
			protein_g = COALESCE(@proteinG, protein_g),
			carbs_g = COALESCE(@carbsG, carbs_g),
			fat_g = COALESCE(@fatG, fat_g),
			updated_at = now()
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{
			"id": id, "userID": userID,
			"date": body.Date, "itemName": body.ItemName, "mealType": body.MealType,
			"qty": body.Qty, "uom": body.Uom, "calories": body.Calories,
			"proteinG": body.ProteinG, "carbsG": body.CarbsG, "fatG": body.FatG,
		})
	if err != nil {
		apiError(c, http.StatusNotFound, "item not found")
		return
	}

	c.JSON(http.StatusOK, item)
}

// deleteFoodLogItem removes a food log entry. Returns 204 on success.
// DELETE /api/food-log/items/:id.
func (h *Handler) deleteFoodLogItem(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM food_log_items WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "item not found")
		return
	}

	c.Status(http.StatusNoContent)
}
