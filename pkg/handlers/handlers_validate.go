package handlers

import (
	"net/http"

	"github.com/arnavshah/roster-engine-go/pkg/models"
	"github.com/gin-gonic/gin"
)

var knownPredicates = map[string]bool{
	"is_long_weekend":         true,
	"is_day_of_week":          true,
	"is_friday_or_monday":     true,
	"min_gap_hours_satisfied": true,
}

func collectUnknownPredicates(node *models.PredicateNode, unknown *[]string) {
	if node == nil {
		return
	}
	for i := range node.Any {
		collectUnknownPredicates(&node.Any[i], unknown)
	}
	for i := range node.All {
		collectUnknownPredicates(&node.All[i], unknown)
	}
	if node.Predicate != "" && !knownPredicates[node.Predicate] {
		*unknown = append(*unknown, node.Predicate)
	}
}

// ValidateInput handles the JSON-based validation request: structural
// checks the solver itself does not perform (it fails closed instead).
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.SolveContext
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.People) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one person is required",
		})
		return
	}

	if len(input.Events) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one event is required",
		})
		return
	}

	if input.ToDate.Before(input.FromDate) {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "to_date is before from_date",
		})
		return
	}

	// Check for duplicate IDs
	personIDs := make(map[string]bool)
	for _, p := range input.People {
		if personIDs[p.ID] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate person ID: " + p.ID})
			return
		}
		personIDs[p.ID] = true
	}

	eventIDs := make(map[string]bool)
	for _, ev := range input.Events {
		if eventIDs[ev.ID] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate event ID: " + ev.ID})
			return
		}
		eventIDs[ev.ID] = true
	}

	// Binding sanity: rules the engine would silently skip are surfaced
	// here as warnings so rule authors can catch typos.
	var warnings []string
	for _, b := range input.Constraints {
		var unknown []string
		collectUnknownPredicates(b.When, &unknown)
		for _, name := range unknown {
			warnings = append(warnings, "constraint "+b.Key+": unknown predicate "+name+" (never fires)")
		}
		if b.Then.EnforceCap != nil && b.Then.EnforceCap.Period != "P1M" {
			warnings = append(warnings, "constraint "+b.Key+": cap period "+b.Then.EnforceCap.Period+" is not enforced")
		}
		if p := b.Then.PenalizeIf; p != nil && p.Type != "cooldown" && p.Type != "recent_rotation" {
			warnings = append(warnings, "constraint "+b.Key+": penalize_if type "+p.Type+" is not enforced")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"warnings": warnings,
		"stats": gin.H{
			"person_count":     len(input.People),
			"event_count":      len(input.Events),
			"constraint_count": len(input.Constraints),
		},
	})
}
