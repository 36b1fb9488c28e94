package engine

import (
	"testing"
	"time"

	"github.com/arnavshah/roster-engine-go/pkg/models"
)

// 2025-06-01 is a Sunday.
func testDate(day int) time.Time {
	return time.Date(2025, 6, day, 9, 0, 0, 0, time.UTC)
}

func TestEvalUnknownPredicate(t *testing.T) {
	p := CompilePredicate(&models.PredicateNode{Predicate: "is_full_moon"})
	ctx := &EvalContext{Date: testDate(2)}

	if p.Eval(ctx) {
		t.Error("Expected unknown predicate to evaluate false")
	}
}

func TestEvalNilAndEmptyNodes(t *testing.T) {
	ctx := &EvalContext{Date: testDate(2)}

	if CompilePredicate(nil).Eval(ctx) {
		t.Error("Expected nil node to evaluate false")
	}
	if CompilePredicate(&models.PredicateNode{}).Eval(ctx) {
		t.Error("Expected empty node to evaluate false")
	}
}

func TestEvalVacuousLists(t *testing.T) {
	ctx := &EvalContext{Date: testDate(2)}

	anyNode := CompilePredicate(&models.PredicateNode{Any: []models.PredicateNode{}})
	if anyNode.Eval(ctx) {
		t.Error("Expected empty any to evaluate false")
	}

	allNode := CompilePredicate(&models.PredicateNode{All: []models.PredicateNode{}})
	if !allNode.Eval(ctx) {
		t.Error("Expected empty all to evaluate true")
	}
}

func TestEvalDayOfWeekCaseInsensitive(t *testing.T) {
	p := CompilePredicate(&models.PredicateNode{
		Predicate: "is_day_of_week",
		Params:    map[string]any{"day": "TUESDAY"},
	})

	if !p.Eval(&EvalContext{Date: testDate(3)}) {
		t.Error("Expected Tuesday to match TUESDAY")
	}
	if p.Eval(&EvalContext{Date: testDate(4)}) {
		t.Error("Expected Wednesday not to match TUESDAY")
	}
}

func TestEvalFridayOrMonday(t *testing.T) {
	p := CompilePredicate(&models.PredicateNode{Predicate: "is_friday_or_monday"})

	if !p.Eval(&EvalContext{Date: testDate(2)}) {
		t.Error("Expected Monday to match")
	}
	if !p.Eval(&EvalContext{Date: testDate(6)}) {
		t.Error("Expected Friday to match")
	}
	if p.Eval(&EvalContext{Date: testDate(4)}) {
		t.Error("Expected Wednesday not to match")
	}
}

func TestEvalLongWeekend(t *testing.T) {
	p := CompilePredicate(&models.PredicateNode{Predicate: "is_long_weekend"})
	holidays := map[string]bool{"2025-06-02": true, "2025-06-03": false}

	if !p.Eval(&EvalContext{Date: testDate(2), Holidays: holidays}) {
		t.Error("Expected flagged holiday to match")
	}
	if p.Eval(&EvalContext{Date: testDate(3), Holidays: holidays}) {
		t.Error("Expected non-long-weekend holiday not to match")
	}
	if p.Eval(&EvalContext{Date: testDate(4), Holidays: holidays}) {
		t.Error("Expected plain date not to match")
	}
}

func TestEvalNestedTree(t *testing.T) {
	// any(is_long_weekend, all(is_friday_or_monday, is_day_of_week monday))
	node := &models.PredicateNode{
		Any: []models.PredicateNode{
			{Predicate: "is_long_weekend"},
			{All: []models.PredicateNode{
				{Predicate: "is_friday_or_monday"},
				{Predicate: "is_day_of_week", Params: map[string]any{"day": "monday"}},
			}},
		},
	}
	p := CompilePredicate(node)

	if !p.Eval(&EvalContext{Date: testDate(2)}) {
		t.Error("Expected Monday to satisfy the nested tree")
	}
	if p.Eval(&EvalContext{Date: testDate(6)}) {
		t.Error("Expected Friday not to satisfy the nested tree")
	}
}

func TestEvalMinGapLeafWithoutPerson(t *testing.T) {
	p := CompilePredicate(&models.PredicateNode{
		Predicate: "min_gap_hours_satisfied",
		Params:    map[string]any{"min_gap_hours": float64(8)},
	})

	if p.Eval(&EvalContext{Date: testDate(2)}) {
		t.Error("Expected min-gap leaf without a candidate person to evaluate false")
	}
}

func TestLastAssignmentDaysAgo(t *testing.T) {
	ctx := &EvalContext{
		Date: testDate(10),
		PersonAssignments: map[string][]models.Event{
			"p1": {
				{ID: "e1", Start: testDate(3)},
				{ID: "e2", Start: testDate(8)},
				{ID: "e3", Start: testDate(20)}, // future, ignored
			},
		},
	}

	days, ok := ctx.lastAssignmentDaysAgo("p1", ctx.Date)
	if !ok || days != 2 {
		t.Errorf("Expected 2 days ago, got %d (ok=%v)", days, ok)
	}

	if _, ok := ctx.lastAssignmentDaysAgo("p2", ctx.Date); ok {
		t.Error("Expected no result for a person with no assignments")
	}
}
