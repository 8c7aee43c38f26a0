package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// validGoals mirrors the goalType constants the detectors switch on. Kept as
// a map for the same validate-before-INSERT pattern as validMealTypes.
var validGoals = map[string]bool{
	string(goalFatLoss):     true,
	string(goalMaintenance): true,
	string(goalMuscleGain):  true,
}

// getUserSettings returns the settings row for the authenticated user.
// Computed baseline fields (bmr, tdee, budget, pace) are populated when all
// profile fields are present.
// GET /api/settings.
func (h *Handler) getUserSettings(c *gin.Context) {
	userID := c.GetInt("user_id")

	s, err := queryOne[userSettings](h.db, c,
		"SELECT * FROM user_settings WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusNotFound, "settings not found")
		return
	}

	populateBaselineTDEE(&s)

	c.JSON(http.StatusOK, s)
}

// patchUserSettings updates only the provided settings fields.
// PATCH /api/settings. Uses pointer fields in the request body to distinguish
// "not provided" from zero — only non-nil fields get updated.
// When budget_auto is true after the update, the calorie_budget is overwritten
// with the baseline-TDEE-derived value if all required profile fields are present.
func (h *Handler) patchUserSettings(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchUserSettingsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// Validate activity_level before saving — an unknown level silently breaks
	// all future baseline auto-budget calculations with no visible error.
	if body.ActivityLevel != nil {
		if _, ok := activityMultipliers[*body.ActivityLevel]; !ok {
			apiError(c, http.StatusBadRequest, "activity_level must be one of: sedentary, light, moderate, active, very_active")
			return
		}
	}
	// Same for goal — the adaptation detectors only ever fire for fat_loss,
	// and an unknown goal would silently disable them.
	if body.Goal != nil && !validGoals[*body.Goal] {
		apiError(c, http.StatusBadRequest, "goal must be one of: fat_loss, maintenance, muscle_gain")
		return
	}

	// Build SET clause dynamically — only update fields the client actually sent
	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}

	if body.CalorieBudget != nil {
		setClauses = append(setClauses, "calorie_budget = @calorieBudget")
		args["calorieBudget"] = *body.CalorieBudget
	}
	if body.ProteinTargetG != nil {
		setClauses = append(setClauses, "protein_target_g = @proteinTargetG")
		args["proteinTargetG"] = *body.ProteinTargetG
	}
	if body.CarbsTargetG != nil {
		setClauses = append(setClauses, "carbs_target_g = @carbsTargetG")
		args["carbsTargetG"] = *body.CarbsTargetG
	}
	if body.FatTargetG != nil {
		setClauses = append(setClauses, "fat_target_g = @fatTargetG")
		args["fatTargetG"] = *body.FatTargetG
	}
	if body.Goal != nil {
		setClauses = append(setClauses, "goal = @goal")
		args["goal"] = *body.Goal
	}
	if body.Sex != nil {
		setClauses = append(setClauses, "sex = @sex")
		args["sex"] = *body.Sex
	}
	if body.DateOfBirth != nil {
		setClauses = append(setClauses, "date_of_birth = @dateOfBirth")
		args["dateOfBirth"] = *body.DateOfBirth
	}
	if body.HeightCM != nil {
		setClauses = append(setClauses, "height_cm = @heightCM")
		args["heightCM"] = *body.HeightCM
	}
	if body.WeightKG != nil {
		setClauses = append(setClauses, "weight_kg = @weightKG")
		args["weightKG"] = *body.WeightKG
	}
	if body.ActivityLevel != nil {
		setClauses = append(setClauses, "activity_level = @activityLevel")
		args["activityLevel"] = *body.ActivityLevel
	}
	if body.TargetWeightKG != nil {
		setClauses = append(setClauses, "target_weight_kg = @targetWeightKG")
		args["targetWeightKG"] = *body.TargetWeightKG
	}
	if body.TargetDate != nil {
		setClauses = append(setClauses, "target_date = @targetDate")
		args["targetDate"] = *body.TargetDate
	}
	if body.BudgetAuto != nil {
		setClauses = append(setClauses, "budget_auto = @budgetAuto")
		args["budgetAuto"] = *body.BudgetAuto
	}
	if body.SetupComplete != nil {
		setClauses = append(setClauses, "setup_complete = @setupComplete")
		args["setupComplete"] = *body.SetupComplete
	}

	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	query := "UPDATE user_settings SET " +
		strings.Join(setClauses, ", ") +
		" WHERE user_id = @userID RETURNING *"

	s, err := queryOne[userSettings](h.db, c, query, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to update settings")
		return
	}

	// If budget_auto is on, compute the baseline and persist the resulting calorie_budget.
	if s.BudgetAuto {
		if _, _, budget, _, ok := computeBaselineTDEE(&s); ok {
			updated, err := queryOne[userSettings](h.db, c,
				"UPDATE user_settings SET calorie_budget = @budget WHERE user_id = @userID RETURNING *",
				pgx.NamedArgs{"budget": budget, "userID": userID})
			if err != nil {
				log.Printf("[patchUserSettings] auto-budget update failed for user %d: %v", userID, err)
			} else {
				s = updated
			}
		}
	}

	populateBaselineTDEE(&s)

	c.JSON(http.StatusOK, s)
}
