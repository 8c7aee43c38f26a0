package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID          int        `json:"id" db:"id"`
	Username    string     `json:"username" db:"username"`
	Email       string     `json:"email" db:"email"`
	AuthToken   string     `json:"-" db:"auth_token"`
	Password    string     `json:"-" db:"password"`
	CreatedAt   *time.Time `json:"created_at" db:"created_at"`
	LastLoginAt *time.Time `json:"-" db:"last_login_at"`
}

// weightEntry maps to weight_log. One row per scale reading, keyed by a full
// timestamp rather than a date: several weigh-ins on the same day are all
// kept, and the trend smoother decides what to make of them. Source records
// where the reading came from (manual, scale_sync, import).
type weightEntry struct {
	ID         int        `json:"id" db:"id"`
	UserID     int        `json:"user_id" db:"user_id"`
	MeasuredAt time.Time  `json:"measured_at" db:"measured_at"`
	WeightKG   float64    `json:"weight_kg" db:"weight_kg"`
	Source     string     `json:"source" db:"source"`
	CreatedAt  *time.Time `json:"created_at" db:"created_at"`
}

// foodLogItem maps to food_log_items. Nullable numeric fields use pointers
// so pgx can scan NULLs and JSON omits them naturally.
type foodLogItem struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Date      DateOnly   `json:"date" db:"date"`
	ItemName  string     `json:"item_name" db:"item_name"`
	MealType  string     `json:"meal_type" db:"meal_type"`
	Qty       *float64   `json:"qty" db:"qty"`
	Uom       *string    `json:"uom" db:"uom"`
	Calories  int        `json:"calories" db:"calories"`
	ProteinG  *float64   `json:"protein_g" db:"protein_g"`
	CarbsG    *float64   `json:"carbs_g" db:"carbs_g"`
	FatG      *float64   `json:"fat_g" db:"fat_g"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// dailyIntakeSummary is one calendar day's food totals, produced by the
// GROUP BY query in getIntakeSummaries. It doubles as the estimator's intake
// input: only logged days appear, so ItemCount is always ≥ 1.
type dailyIntakeSummary struct {
	Date          DateOnly `json:"date" db:"date"`
	TotalCalories int      `json:"total_calories" db:"total_calories"`
	ProteinG      float64  `json:"protein_g" db:"protein_g"`
	CarbsG        float64  `json:"carbs_g" db:"carbs_g"`
	FatG          float64  `json:"fat_g" db:"fat_g"`
	ItemCount     int      `json:"item_count" db:"item_count"`
}

// userSettings maps to user_settings. One row per user with calorie budget,
// macro targets, goal, and body-profile fields used for the baseline TDEE.
type userSettings struct {
	UserID         int    `json:"user_id"          db:"user_id"`
	CalorieBudget  int    `json:"calorie_budget"   db:"calorie_budget"`
	ProteinTargetG int    `json:"protein_target_g" db:"protein_target_g"`
	CarbsTargetG   int    `json:"carbs_target_g"   db:"carbs_target_g"`
	FatTargetG     int    `json:"fat_target_g"     db:"fat_target_g"`
	Goal           string `json:"goal"             db:"goal"`

	// Profile fields — all nullable; zero-knowledge rows still work.
	Sex            *string   `json:"sex"              db:"sex"`
	DateOfBirth    *DateOnly `json:"date_of_birth"    db:"date_of_birth"`
	HeightCM       *float64  `json:"height_cm"        db:"height_cm"`
	WeightKG       *float64  `json:"weight_kg"        db:"weight_kg"`
	ActivityLevel  *string   `json:"activity_level"   db:"activity_level"`
	TargetWeightKG *float64  `json:"target_weight_kg" db:"target_weight_kg"`
	TargetDate     *DateOnly `json:"target_date"      db:"target_date"`
	BudgetAuto     bool      `json:"budget_auto"      db:"budget_auto"`
	SetupComplete  bool      `json:"setup_complete"   db:"setup_complete"`

	// Computed fields — populated server-side from profile; not stored in DB.
	// db:"-" tells RowToStructByName to skip these during scanning.
	ComputedBMR    *int     `json:"computed_bmr,omitempty"     db:"-"`
	ComputedTDEE   *int     `json:"computed_tdee,omitempty"    db:"-"`
	ComputedBudget *int     `json:"computed_budget,omitempty"  db:"-"`
	PaceKGPerWeek  *float64 `json:"pace_kg_per_week,omitempty" db:"-"`
}

// tdeeEstimate is one analysis run's output and maps to the append-only
// tdee_estimates table. The estimator fills the computation fields; the
// analyze handler adds the window bounds and persists the row. Past rows are
// never edited — the adaptation detector reads them back as a history.
type tdeeEstimate struct {
	ID     int `json:"id,omitempty" db:"id"`
	UserID int `json:"user_id,omitempty" db:"user_id"`

	TDEEKcal           int     `json:"tdee_kcal" db:"tdee_kcal"`
	ConfidenceLowKcal  int     `json:"confidence_low_kcal" db:"confidence_low_kcal"`
	ConfidenceHighKcal int     `json:"confidence_high_kcal" db:"confidence_high_kcal"`
	UncertaintyKcal    int     `json:"uncertainty_kcal" db:"uncertainty_kcal"`
	DataQualityScore   float64 `json:"data_quality_score" db:"data_quality_score"`
	WeightChangeKG     float64 `json:"weight_change_kg" db:"weight_change_kg"`
	AvgDailyIntakeKcal float64 `json:"avg_daily_intake_kcal" db:"avg_daily_intake_kcal"`
	StartWeightKG      float64 `json:"start_weight_kg" db:"start_weight_kg"`
	EndWeightKG        float64 `json:"end_weight_kg" db:"end_weight_kg"`
	DaysAnalyzed       int     `json:"days_analyzed" db:"days_analyzed"`
	FoodLogCount       int     `json:"food_log_count" db:"food_log_count"`
	WeightLogCount     int     `json:"weight_log_count" db:"weight_log_count"`

	WindowStart *DateOnly  `json:"window_start,omitempty" db:"window_start"`
	WindowEnd   *DateOnly  `json:"window_end,omitempty" db:"window_end"`
	CreatedAt   *time.Time `json:"created_at,omitempty" db:"created_at"`
}

// weeklyWeightRow is the shape of each row returned by the weekly-average
// GROUP BY query in fetchWeeklyDeltas. Used only for scanning.
type weeklyWeightRow struct {
	WeekStart DateOnly `db:"week_start"`
	AvgKG     float64  `db:"avg_kg"`
}

// dailySummary is the response shape for GET /food-log/daily.
// Includes the day's items, user settings, and computed totals.
type dailySummary struct {
	Date          string        `json:"date"`
	CalorieBudget int           `json:"calorie_budget"`
	Calories      int           `json:"calories"`
	CaloriesLeft  int           `json:"calories_left"`
	ProteinG      float64       `json:"protein_g"`
	CarbsG        float64       `json:"carbs_g"`
	FatG          float64       `json:"fat_g"`
	Items         []foodLogItem `json:"items"`
	Settings      userSettings  `json:"settings"`
}

// createFoodLogItemRequest is the request body for POST /api/food-log/items.
type createFoodLogItemRequest struct {
	Date     string   `json:"date"`
	ItemName string   `json:"item_name"`
	MealType string   `json:"meal_type"`
	Qty      *float64 `json:"qty"`
	Uom      *string  `json:"uom"`
	Calories int      `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatG     *float64 `json:"fat_g"`
}

// patchUserSettingsRequest is the request body for PATCH /api/settings.
// All fields are pointers — only non-nil fields get written to the database.
type patchUserSettingsRequest struct {
	CalorieBudget  *int     `json:"calorie_budget"`
	ProteinTargetG *int     `json:"protein_target_g"`
	CarbsTargetG   *int     `json:"carbs_target_g"`
	FatTargetG     *int     `json:"fat_target_g"`
	Goal           *string  `json:"goal"`
	Sex            *string  `json:"sex"`
	DateOfBirth    *string  `json:"date_of_birth"` // YYYY-MM-DD string, stored as date
	HeightCM       *float64 `json:"height_cm"`
	WeightKG       *float64 `json:"weight_kg"`
	ActivityLevel  *string  `json:"activity_level"`
	TargetWeightKG *float64 `json:"target_weight_kg"`
	TargetDate     *string  `json:"target_date"` // YYYY-MM-DD string, stored as date
	BudgetAuto     *bool    `json:"budget_auto"`
	SetupComplete  *bool    `json:"setup_complete"`
}
