package engine

import (
	"testing"
	"time"

	"github.com/arnavshah/roster-engine-go/pkg/models"
)

func TestEvaluateWhenClauseNotMatched(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "no-holiday-shifts",
		Severity: models.SeverityHard,
		When:     &models.PredicateNode{Predicate: "is_long_weekend"},
		Then:     models.ConstraintAction{ForbidIf: "is_friday_or_monday"},
	}

	// Monday, but no holiday data: the guard does not fire.
	res := e.Evaluate(b, &EvalContext{Date: testDate(2)})
	if !res.Satisfied {
		t.Error("Expected unmatched when clause to read as satisfied")
	}
	if res.Reason != "when clause not matched" {
		t.Errorf("Unexpected reason: %q", res.Reason)
	}
}

func TestEvaluateForbidHardPenalty(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "no-monday",
		Severity: models.SeverityHard,
		Then:     models.ConstraintAction{ForbidIf: "is_friday_or_monday"},
	}

	res := e.Evaluate(b, &EvalContext{Date: testDate(2)})
	if res.Satisfied {
		t.Fatal("Expected Monday to violate")
	}
	if res.Penalty != 1000.0 {
		t.Errorf("Expected hard penalty 1000, got %f", res.Penalty)
	}

	res = e.Evaluate(b, &EvalContext{Date: testDate(4)})
	if !res.Satisfied {
		t.Error("Expected Wednesday to pass")
	}
}

func TestEvaluateForbidSoftWeight(t *testing.T) {
	e := NewEvaluator(DefaultConfig())

	weighted := &models.ConstraintBinding{
		Key:      "avoid-friday",
		Severity: models.SeveritySoft,
		Weight:   25,
		Then:     models.ConstraintAction{ForbidIf: "is_friday_or_monday"},
	}
	res := e.Evaluate(weighted, &EvalContext{Date: testDate(6)})
	if res.Satisfied || res.Penalty != 25.0 {
		t.Errorf("Expected soft penalty 25, got satisfied=%v penalty=%f", res.Satisfied, res.Penalty)
	}

	unweighted := &models.ConstraintBinding{
		Key:      "avoid-friday",
		Severity: models.SeveritySoft,
		Then:     models.ConstraintAction{ForbidIf: "is_friday_or_monday"},
	}
	res = e.Evaluate(unweighted, &EvalContext{Date: testDate(6)})
	if res.Penalty != 10.0 {
		t.Errorf("Expected default weight 10, got %f", res.Penalty)
	}
}

func TestEvaluateRequireRolesMissingData(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "staffing",
		Severity: models.SeverityHard,
		Then: models.ConstraintAction{
			RequireRoles: []models.RequiredRole{{Role: "usher", Count: 1}},
		},
	}
	ctx := &EvalContext{
		Date:  testDate(4),
		Event: &models.Event{ID: "e1", Type: "shift", Start: testDate(4)},
	}

	res := e.Evaluate(b, ctx)
	if res.Satisfied {
		t.Fatal("Expected missing data to read as violated")
	}
	if res.Reason != "No assignments/people data available" {
		t.Errorf("Unexpected reason: %q", res.Reason)
	}
}

func TestEvaluateRequireRolesCoverage(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "staffing",
		Severity: models.SeverityHard,
		Then: models.ConstraintAction{
			RequireRoles: []models.RequiredRole{{Role: "usher", Count: 2}},
		},
	}
	ctx := &EvalContext{
		Date:  testDate(4),
		Event: &models.Event{ID: "e1", Type: "shift", Start: testDate(4)},
		People: []models.Person{
			{ID: "p1", Roles: []string{"usher"}},
			{ID: "p2", Roles: []string{"usher"}},
			{ID: "p3", Roles: []string{"greeter"}},
		},
		Assignments: map[string][]string{"e1": {"p1", "p3"}},
	}

	res := e.Evaluate(b, ctx)
	if res.Satisfied {
		t.Fatal("Expected one usher of two to violate")
	}

	ctx.Assignments["e1"] = []string{"p1", "p2"}
	res = e.Evaluate(b, ctx)
	if !res.Satisfied {
		t.Errorf("Expected full coverage to pass, got reason %q", res.Reason)
	}
}

func TestEvaluateMinGapBoundary(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "rest-gap",
		Severity: models.SeverityHard,
		Then:     models.ConstraintAction{EnforceMinGapHours: 8},
	}
	person := &models.Person{ID: "p1", Roles: []string{"usher"}}

	ctx := &EvalContext{
		Date:   testDate(4),
		Event:  &models.Event{ID: "e2", Type: "shift", Start: testDate(4)},
		Person: person,
		PersonAssignments: map[string][]models.Event{
			"p1": {{ID: "e1", Start: testDate(4).Add(-5 * time.Hour)}},
		},
	}
	if res := e.Evaluate(b, ctx); res.Satisfied {
		t.Error("Expected a 5h gap to violate an 8h minimum")
	}

	ctx.PersonAssignments["p1"] = []models.Event{{ID: "e1", Start: testDate(4).Add(-8 * time.Hour)}}
	if res := e.Evaluate(b, ctx); !res.Satisfied {
		t.Error("Expected an exact 8h gap to satisfy")
	}
}

func TestEvaluateMonthlyCap(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	person := &models.Person{ID: "p1"}
	ctx := &EvalContext{
		Date:   testDate(20),
		Event:  &models.Event{ID: "e9", Type: "shift", Start: testDate(20)},
		Person: person,
		PersonAssignments: map[string][]models.Event{
			"p1": {
				{ID: "e1", Start: testDate(3)},
				{ID: "e2", Start: testDate(10)},
				{ID: "e3", Start: time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC)}, // prior month
			},
		},
	}

	capped := &models.ConstraintBinding{
		Key:      "monthly-cap",
		Severity: models.SeverityHard,
		Then:     models.ConstraintAction{EnforceCap: &models.CapRule{Period: "P1M", MaxCount: 2}},
	}
	if res := e.Evaluate(capped, ctx); res.Satisfied {
		t.Error("Expected 2 assignments against a cap of 2 to violate")
	}

	loose := &models.ConstraintBinding{
		Key:      "monthly-cap",
		Severity: models.SeverityHard,
		Then:     models.ConstraintAction{EnforceCap: &models.CapRule{Period: "P1M", MaxCount: 3}},
	}
	if res := e.Evaluate(loose, ctx); !res.Satisfied {
		t.Errorf("Expected 2 assignments against a cap of 3 to pass, got %q", res.Reason)
	}

	weekly := &models.ConstraintBinding{
		Key:      "weekly-cap",
		Severity: models.SeverityHard,
		Then:     models.ConstraintAction{EnforceCap: &models.CapRule{Period: "P1W", MaxCount: 1}},
	}
	if res := e.Evaluate(weekly, ctx); !res.Satisfied {
		t.Error("Expected unsupported cap period to be a no-op")
	}
}

func TestEvaluateCooldownRamp(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "cooldown",
		Severity: models.SeveritySoft,
		Weight:   20,
		Then:     models.ConstraintAction{PenalizeIf: &models.PenaltyRule{Type: "cooldown", CooldownDays: 14}},
	}
	ctx := &EvalContext{
		Date:   testDate(10),
		Person: &models.Person{ID: "p1"},
		PersonAssignments: map[string][]models.Event{
			"p1": {{ID: "e1", Start: testDate(3)}},
		},
	}

	res := e.Evaluate(b, ctx)
	if res.Satisfied {
		t.Fatal("Expected 7 days into a 14 day cooldown to penalize")
	}
	if res.Penalty != 10.0 {
		t.Errorf("Expected penalty 20*(14-7)/14 = 10, got %f", res.Penalty)
	}
}

func TestEvaluateCooldownOutsideWindow(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "cooldown",
		Severity: models.SeveritySoft,
		Then:     models.ConstraintAction{PenalizeIf: &models.PenaltyRule{Type: "cooldown"}},
	}
	ctx := &EvalContext{
		Date:   testDate(20),
		Person: &models.Person{ID: "p1"},
		PersonAssignments: map[string][]models.Event{
			"p1": {{ID: "e1", Start: testDate(3)}}, // 17 days ago, default window 14
		},
	}

	if res := e.Evaluate(b, ctx); !res.Satisfied {
		t.Error("Expected an assignment outside the cooldown window to pass")
	}

	ctx.PersonAssignments = map[string][]models.Event{}
	if res := e.Evaluate(b, ctx); !res.Satisfied {
		t.Error("Expected a person with no assignments to pass")
	}
}

func TestEvaluateRecentRotationDefaultWindow(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "rotation",
		Severity: models.SeveritySoft,
		Then:     models.ConstraintAction{PenalizeIf: &models.PenaltyRule{Type: "recent_rotation"}},
	}
	ctx := &EvalContext{
		Date:   testDate(18),
		Person: &models.Person{ID: "p1"},
		PersonAssignments: map[string][]models.Event{
			"p1": {{ID: "e1", Start: testDate(3)}}, // 15 days ago, default lookback 30
		},
	}

	res := e.Evaluate(b, ctx)
	if res.Satisfied {
		t.Fatal("Expected 15 days into a 30 day lookback to penalize")
	}
	if res.Penalty != 5.0 {
		t.Errorf("Expected penalty 10*(30-15)/30 = 5, got %f", res.Penalty)
	}
}

func TestEvaluateUnknownPenalizeType(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "mystery",
		Severity: models.SeveritySoft,
		Then:     models.ConstraintAction{PenalizeIf: &models.PenaltyRule{Type: "lunar_phase"}},
	}
	ctx := &EvalContext{
		Date:   testDate(10),
		Person: &models.Person{ID: "p1"},
		PersonAssignments: map[string][]models.Event{
			"p1": {{ID: "e1", Start: testDate(9)}},
		},
	}

	if res := e.Evaluate(b, ctx); !res.Satisfied {
		t.Error("Expected unknown penalize_if type to be a no-op")
	}
}

func TestEvaluateHardPenalizeIfIgnored(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	b := &models.ConstraintBinding{
		Key:      "cooldown",
		Severity: models.SeverityHard,
		Then:     models.ConstraintAction{PenalizeIf: &models.PenaltyRule{Type: "cooldown"}},
	}
	ctx := &EvalContext{
		Date:   testDate(10),
		Person: &models.Person{ID: "p1"},
		PersonAssignments: map[string][]models.Event{
			"p1": {{ID: "e1", Start: testDate(9)}},
		},
	}

	if res := e.Evaluate(b, ctx); !res.Satisfied {
		t.Error("Expected penalize_if on a hard binding to be a no-op")
	}
}
