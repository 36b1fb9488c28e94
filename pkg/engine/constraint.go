package engine

import (
	"fmt"
	"time"

	"github.com/arnavshah/roster-engine-go/pkg/models"
)

// Config collects the evaluator's tuning constants so defaults are
// overridable instead of inlined.
type Config struct {
	HardPenalty         float64
	DefaultWeight       int
	DefaultCooldownDays int
	DefaultLookbackDays int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		HardPenalty:         1000.0,
		DefaultWeight:       10,
		DefaultCooldownDays: 14,
		DefaultLookbackDays: 30,
	}
}

// Result is the outcome of evaluating one binding against a context.
type Result struct {
	Satisfied bool
	Penalty   float64
	Reason    string
}

// Evaluator decides whether a constraint binding is satisfied in a given
// context and prices the violation when it is not.
type Evaluator struct {
	cfg Config
}

// NewEvaluator creates an evaluator with the given config.
func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// violationPenalty prices a violation: hard violations are pinned at a
// large constant so they dominate any soft-penalty sum downstream, soft
// ones scale with the binding's weight.
func (e *Evaluator) violationPenalty(b *models.ConstraintBinding) float64 {
	if b.Severity == models.SeverityHard {
		return e.cfg.HardPenalty
	}
	return float64(e.bindingWeight(b))
}

func (e *Evaluator) bindingWeight(b *models.ConstraintBinding) int {
	if b.Weight > 0 {
		return b.Weight
	}
	return e.cfg.DefaultWeight
}

// Evaluate checks one binding. A non-matching "when" guard means the rule
// does not apply, which reads as satisfied. Action fields are checked in
// a fixed order and the first applicable violation wins.
func (e *Evaluator) Evaluate(b *models.ConstraintBinding, ctx *EvalContext) Result {
	if b.When != nil && !CompilePredicate(b.When).Eval(ctx) {
		return Result{Satisfied: true, Reason: "when clause not matched"}
	}

	if b.Then.ForbidIf == "is_friday_or_monday" && ctx.isFridayOrMonday() {
		return Result{
			Penalty: e.violationPenalty(b),
			Reason:  fmt.Sprintf("%s falls on a Friday or Monday", DateKey(ctx.Date)),
		}
	}

	if len(b.Then.RequireRoles) > 0 && ctx.Event != nil {
		if r, violated := e.checkRequiredRoles(b, ctx); violated {
			return r
		}
	}

	if b.Then.EnforceMinGapHours > 0 && ctx.Person != nil {
		if !ctx.minGapHoursSatisfied(ctx.Person.ID, b.Then.EnforceMinGapHours) {
			return Result{
				Penalty: e.violationPenalty(b),
				Reason: fmt.Sprintf("person %s has an assignment within %dh of this event",
					ctx.Person.ID, b.Then.EnforceMinGapHours),
			}
		}
	}

	if b.Then.EnforceCap != nil && ctx.Person != nil {
		if r, violated := e.checkCap(b, ctx); violated {
			return r
		}
	}

	if b.Then.PenalizeIf != nil && b.Severity == models.SeveritySoft && ctx.Person != nil {
		if r, violated := e.checkRecencyPenalty(b, ctx); violated {
			return r
		}
	}

	return Result{Satisfied: true}
}

// checkRequiredRoles verifies role coverage of the current event's
// assignee list. Missing assignment or people data fails closed as a
// violation rather than an error.
func (e *Evaluator) checkRequiredRoles(b *models.ConstraintBinding, ctx *EvalContext) (Result, bool) {
	if ctx.Assignments == nil || len(ctx.People) == 0 {
		return Result{
			Penalty: e.violationPenalty(b),
			Reason:  "No assignments/people data available",
		}, true
	}

	peopleByID := make(map[string]*models.Person, len(ctx.People))
	for i := range ctx.People {
		peopleByID[ctx.People[i].ID] = &ctx.People[i]
	}

	assigned := ctx.Assignments[ctx.Event.ID]
	for _, rr := range b.Then.RequireRoles {
		have := 0
		for _, pid := range assigned {
			if p, ok := peopleByID[pid]; ok && p.HasRole(rr.Role) {
				have++
			}
		}
		if have < rr.Count {
			return Result{
				Penalty: e.violationPenalty(b),
				Reason:  fmt.Sprintf("role %q has %d of %d required", rr.Role, have, rr.Count),
			}, true
		}
	}
	return Result{}, false
}

// checkCap enforces a per-period assignment cap. Only the P1M period
// (the calendar month containing ctx.Date) is implemented; other periods
// fall through as no-ops.
func (e *Evaluator) checkCap(b *models.ConstraintBinding, ctx *EvalContext) (Result, bool) {
	rule := b.Then.EnforceCap
	if rule.Period != "P1M" {
		return Result{}, false
	}
	y, m, _ := ctx.Date.Date()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, ctx.Date.Location())
	monthEnd := monthStart.AddDate(0, 1, -1)
	count := ctx.countAssignmentsInPeriod(ctx.Person.ID, monthStart, monthEnd)
	if count >= rule.MaxCount {
		return Result{
			Penalty: e.violationPenalty(b),
			Reason: fmt.Sprintf("person %s already has %d assignments in %s (cap %d)",
				ctx.Person.ID, count, monthStart.Format("2006-01"), rule.MaxCount),
		}, true
	}
	return Result{}, false
}

// checkRecencyPenalty applies the cooldown / recent_rotation linear
// ramp: the penalty starts at the binding weight right after an
// assignment and decays to zero at the window boundary. Unknown types
// are no-ops.
func (e *Evaluator) checkRecencyPenalty(b *models.ConstraintBinding, ctx *EvalContext) (Result, bool) {
	pen := b.Then.PenalizeIf

	var window int
	switch pen.Type {
	case "cooldown":
		window = pen.CooldownDays
		if window <= 0 {
			window = e.cfg.DefaultCooldownDays
		}
	case "recent_rotation":
		window = pen.LookbackDays
		if window <= 0 {
			window = e.cfg.DefaultLookbackDays
		}
	default:
		return Result{}, false
	}

	daysAgo, ok := ctx.lastAssignmentDaysAgo(ctx.Person.ID, ctx.Date)
	if !ok || daysAgo >= window {
		return Result{}, false
	}

	weight := float64(e.bindingWeight(b))
	return Result{
		Penalty: weight * float64(window-daysAgo) / float64(window),
		Reason: fmt.Sprintf("person %s was last assigned %d days ago (window %d)",
			ctx.Person.ID, daysAgo, window),
	}, true
}
