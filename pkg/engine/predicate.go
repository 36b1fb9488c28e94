package engine

import (
	"math"
	"strings"
	"time"

	"github.com/arnavshah/roster-engine-go/pkg/models"
)

// EvalContext is the point-in-time view a predicate or constraint is
// evaluated against. It is rebuilt per event (and per candidate, via
// Person) during a solve; the slices and maps are shared read-only views
// of the solve's working state.
type EvalContext struct {
	Event             *models.Event
	Date              time.Time
	Holidays          map[string]bool // yyyy-mm-dd -> long weekend
	Events            []models.Event
	People            []models.Person
	Assignments       map[string][]string       // event id -> assignee ids so far
	PersonAssignments map[string][]models.Event // person id -> events assigned so far
	Person            *models.Person            // candidate under person-scope evaluation
}

// DateKey formats a timestamp as the calendar-date key used by the
// holiday map.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween returns the whole-day distance from b to a at calendar-date
// granularity (positive when a is after b).
func daysBetween(a, b time.Time) int {
	return int(math.Round(dateOf(a).Sub(dateOf(b)).Hours() / 24))
}

func (ctx *EvalContext) isLongWeekend() bool {
	return ctx.Holidays[DateKey(ctx.Date)]
}

func (ctx *EvalContext) isDayOfWeek(day string) bool {
	return strings.EqualFold(ctx.Date.Weekday().String(), day)
}

func (ctx *EvalContext) isFridayOrMonday() bool {
	wd := ctx.Date.Weekday()
	return wd == time.Friday || wd == time.Monday
}

// minGapHoursSatisfied reports whether none of the person's scheduled
// events starts strictly within minGapHours of the current event's start,
// in either direction. Vacuously true with no prior assignments.
func (ctx *EvalContext) minGapHoursSatisfied(personID string, minGapHours int) bool {
	if ctx.Event == nil {
		return true
	}
	for _, ev := range ctx.PersonAssignments[personID] {
		gap := ctx.Event.Start.Sub(ev.Start).Hours()
		if math.Abs(gap) < float64(minGapHours) {
			return false
		}
	}
	return true
}

// countAssignmentsInPeriod counts the person's assigned events whose
// start date falls within [from, to] inclusive.
func (ctx *EvalContext) countAssignmentsInPeriod(personID string, from, to time.Time) int {
	lo, hi := dateOf(from), dateOf(to)
	count := 0
	for _, ev := range ctx.PersonAssignments[personID] {
		d := dateOf(ev.Start)
		if !d.Before(lo) && !d.After(hi) {
			count++
		}
	}
	return count
}

// lastAssignmentDaysAgo returns the smallest non-negative whole-day
// distance from asOf back to any of the person's assignments starting on
// or before asOf. ok is false when no such assignment exists.
func (ctx *EvalContext) lastAssignmentDaysAgo(personID string, asOf time.Time) (days int, ok bool) {
	best := -1
	for _, ev := range ctx.PersonAssignments[personID] {
		d := daysBetween(asOf, ev.Start)
		if d < 0 {
			continue
		}
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

type predOp int

const (
	opUnknown predOp = iota
	opAnyOf
	opAllOf
	opIsLongWeekend
	opIsDayOfWeek
	opIsFridayOrMonday
	opMinGapSatisfied
)

// Predicate is the compiled form of a models.PredicateNode: the open
// string dispatch of the wire format is resolved once into a closed set
// of operations. Unrecognized predicate names compile to opUnknown,
// which evaluates to false.
type Predicate struct {
	op       predOp
	children []Predicate
	day      string
	gapHours int
}

// CompilePredicate resolves a wire predicate tree into its evaluable
// form. A nil or empty node compiles to the unknown (always-false)
// predicate.
func CompilePredicate(node *models.PredicateNode) Predicate {
	if node == nil {
		return Predicate{}
	}
	if node.Any != nil {
		children := make([]Predicate, len(node.Any))
		for i := range node.Any {
			children[i] = CompilePredicate(&node.Any[i])
		}
		return Predicate{op: opAnyOf, children: children}
	}
	if node.All != nil {
		children := make([]Predicate, len(node.All))
		for i := range node.All {
			children[i] = CompilePredicate(&node.All[i])
		}
		return Predicate{op: opAllOf, children: children}
	}
	switch node.Predicate {
	case "is_long_weekend":
		return Predicate{op: opIsLongWeekend}
	case "is_day_of_week":
		day, _ := node.Params["day"].(string)
		return Predicate{op: opIsDayOfWeek, day: day}
	case "is_friday_or_monday":
		return Predicate{op: opIsFridayOrMonday}
	case "min_gap_hours_satisfied":
		return Predicate{op: opMinGapSatisfied, gapHours: paramInt(node.Params, "min_gap_hours", 0)}
	}
	return Predicate{}
}

func paramInt(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64: // JSON numbers decode as float64
		return int(v)
	case int:
		return v
	}
	return fallback
}

// Eval evaluates the compiled predicate against ctx. An empty "any" is
// false (no child matched); an empty "all" is vacuously true.
func (p Predicate) Eval(ctx *EvalContext) bool {
	switch p.op {
	case opAnyOf:
		for _, c := range p.children {
			if c.Eval(ctx) {
				return true
			}
		}
		return false
	case opAllOf:
		for _, c := range p.children {
			if !c.Eval(ctx) {
				return false
			}
		}
		return true
	case opIsLongWeekend:
		return ctx.isLongWeekend()
	case opIsDayOfWeek:
		return ctx.isDayOfWeek(p.day)
	case opIsFridayOrMonday:
		return ctx.isFridayOrMonday()
	case opMinGapSatisfied:
		if ctx.Person == nil {
			return false
		}
		return ctx.minGapHoursSatisfied(ctx.Person.ID, p.gapHours)
	}
	return false
}
