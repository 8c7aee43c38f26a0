package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// coachResponse is the structured briefing returned by the AI.
type coachResponse struct {
	Headline    string   `json:"headline"`
	Body        string   `json:"body"`
	Suggestions []string `json:"suggestions"`
}

const coachSystemPrompt = `You are a calm, evidence-based nutrition coach. You receive a data summary of one user's metabolic analysis. Return a JSON object with:
- "headline" (string: one short plain-language sentence, no emoji)
- "body" (string: 2-4 sentences explaining what the numbers mean for this user)
- "suggestions" (array of 2-3 short actionable strings)

Ground every statement in the data provided. Never invent numbers. Never give medical advice or mention supplements or medication.
Return only valid JSON, no explanation.`

// buildCoachPrompt flattens a metabolism report into the plain-text data
// block the model narrates from.
func buildCoachPrompt(r *metabolismReport) string {
	var b strings.Builder

	goal := r.settings.Goal
	if goal == "" {
		goal = string(goalMaintenance)
	}
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	fmt.Fprintf(&b, "Calorie budget: %d kcal/day\n", r.settings.CalorieBudget)
	fmt.Fprintf(&b, "Estimated daily deficit: %d kcal\n", r.deficit)

	if r.latest != nil {
		fmt.Fprintf(&b, "Latest TDEE estimate: %d kcal/day (range %d-%d, data quality %.2f)\n",
			r.latest.TDEEKcal, r.latest.ConfidenceLowKcal, r.latest.ConfidenceHighKcal, r.latest.DataQualityScore)
		fmt.Fprintf(&b, "Window: %d days, weight change %+.1f kg, average intake %.0f kcal/day\n",
			r.latest.DaysAnalyzed, r.latest.WeightChangeKG, r.latest.AvgDailyIntakeKcal)
	} else {
		b.WriteString("No TDEE estimate yet — not enough logged data.\n")
	}

	fmt.Fprintf(&b, "Status: %s — %s\n", r.status.Status, r.status.Message)
	if e := r.status.PrimaryEvent; e != nil {
		fmt.Fprintf(&b, "Detected: %s, severity %s", e.Kind, e.Severity)
		switch e.Kind {
		case kindAdaptation:
			fmt.Fprintf(&b, ", adaptive TDEE drop %.1f%% (from %d to %d kcal/day)",
				e.AdaptiveDropPct, e.OldestTDEEKcal, e.CurrentTDEEKcal)
		case kindPlateau:
			fmt.Fprintf(&b, ", weight moved %+.2f kg over %d weeks (expected %+.2f kg)",
				e.TotalWeightChangeKG, e.WeeksAnalyzed, e.ExpectedChangeKG)
		}
		fmt.Fprintf(&b, "\nRecommended intervention: %s — %s\n", e.SuggestedAction, e.ActionDescription)
	}

	return b.String()
}

// getCoachBriefing handles GET /api/metabolism/coach.
// Builds the current metabolism report, has the AI narrate it, and returns
// the briefing alongside the status it was generated from so the client
// never has to worry about the two disagreeing.
func (h *Handler) getCoachBriefing(c *gin.Context) {
	userID := c.GetInt("user_id")

	report, err := fetchMetabolismReport(h, c, userID)
	if err != nil {
		log.Printf("[coach] report failed for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to build metabolism status")
		return
	}

	messages := []openAIMessage{
		{Role: "system", Content: coachSystemPrompt},
		{Role: "user", Content: buildCoachPrompt(report)},
	}

	content, err := callOpenAI(c.Request.Context(), messages, h.openAIBaseURL)
	if err != nil {
		log.Printf("[coach] OpenAI error: %v", err)
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}

	var briefing coachResponse
	if err := json.Unmarshal([]byte(content), &briefing); err != nil {
		log.Printf("[coach] Failed to parse briefing JSON: %v", err)
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}
	if briefing.Headline == "" {
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"briefing": briefing,
		"status":   report.status,
	})
}
