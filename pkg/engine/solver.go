package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/arnavshah/roster-engine-go/pkg/models"
)

const (
	solverName     = "greedy_heuristic"
	solverVersion  = "1.0.0"
	solverStrategy = "feasible_first"

	// Per prior assignment, added to a candidate's score so the greedy
	// pick drifts toward the least-loaded qualifying person.
	fairnessBias = 10.0

	coverageViolationKey = "require_role_coverage"
)

// ErrNilContext is returned when Solve is called without a context.
var ErrNilContext = errors.New("solve context is required")

// Solver runs the single-pass greedy feasible-first assignment. The
// context is passed to Solve directly and never stored, so one Solver is
// safe to reuse sequentially across different contexts; concurrent
// solves should still use separate instances.
type Solver struct {
	eval *Evaluator

	// Accepted for interface compatibility; the greedy algorithm does
	// not consult them.
	objective       map[string]float64
	changeMin       bool
	changeMinWeight float64
}

// NewSolver creates a solver with default evaluator config.
func NewSolver() *Solver {
	return NewSolverWithConfig(DefaultConfig())
}

// NewSolverWithConfig creates a solver with an explicit evaluator config.
func NewSolverWithConfig(cfg Config) *Solver {
	return &Solver{eval: NewEvaluator(cfg)}
}

// SetObjective stores objective weights. The greedy algorithm ignores
// them; the setter exists for interface compatibility with richer
// solvers.
func (s *Solver) SetObjective(weights map[string]float64) {
	s.objective = weights
}

// EnableChangeMinimization stores the change-minimization flag and
// weight. The greedy solver never compares against a published schedule,
// so this has no effect on the algorithm.
func (s *Solver) EnableChangeMinimization(enabled bool, weight float64) {
	s.changeMin = enabled
	s.changeMinWeight = weight
}

// IncrementalUpdate is a no-op: the greedy solver recomputes from a full
// context on every Solve call.
func (s *Solver) IncrementalUpdate(patch any) {}

// solveState is the mutable working set of one Solve call.
type solveState struct {
	assignments       map[string][]string       // event id -> assignee ids
	personAssignments map[string][]models.Event // person id -> events
	hard              []models.Violation
	soft              []models.Violation
}

// Solve runs the greedy pass over the context and returns the solution
// bundle. It performs no I/O and never mutates the context.
func (s *Solver) Solve(sc *models.SolveContext) (*models.SolutionBundle, error) {
	if sc == nil {
		return nil, ErrNilContext
	}
	start := time.Now()

	holidays := make(map[string]bool, len(sc.Holidays))
	for _, h := range sc.Holidays {
		holidays[DateKey(h.Date)] = h.LongWeekend
	}

	events := filterEvents(sc.Events, sc.FromDate, sc.ToDate)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	var hard, soft []models.ConstraintBinding
	for _, c := range sc.Constraints {
		if c.Severity == models.SeverityHard {
			hard = append(hard, c)
		} else {
			soft = append(soft, c)
		}
	}

	state := &solveState{
		assignments:       make(map[string][]string),
		personAssignments: make(map[string][]models.Event),
	}

	var result []models.Assignment
	for i := range events {
		ev := &events[i]
		asgn := s.assignEvent(sc, ev, hard, soft, holidays, state)
		if asgn == nil {
			continue
		}
		result = append(result, *asgn)
		for _, pid := range asgn.AssigneeIDs {
			state.personAssignments[pid] = append(state.personAssignments[pid], *ev)
		}
	}
	if result == nil {
		result = []models.Assignment{}
	}

	metrics := s.computeMetrics(state, time.Since(start))

	return &models.SolutionBundle{
		GeneratedAt: time.Now(),
		FromDate:    sc.FromDate,
		ToDate:      sc.ToDate,
		Mode:        sc.Mode,
		ChangeMin:   sc.ChangeMin,
		Solver: models.SolverInfo{
			Name:     solverName,
			Version:  solverVersion,
			Strategy: solverStrategy,
		},
		Assignments: result,
		Metrics:     metrics,
		Violations: models.ViolationSet{
			Hard: orEmpty(state.hard),
			Soft: orEmpty(state.soft),
		},
	}, nil
}

func orEmpty(v []models.Violation) []models.Violation {
	if v == nil {
		return []models.Violation{}
	}
	return v
}

// filterEvents keeps events whose start date lies within [from, to]
// inclusive, preserving input order.
func filterEvents(events []models.Event, from, to time.Time) []models.Event {
	lo, hi := dateOf(from), dateOf(to)
	var kept []models.Event
	for _, ev := range events {
		d := dateOf(ev.Start)
		if !d.Before(lo) && !d.After(hi) {
			kept = append(kept, ev)
		}
	}
	return kept
}

// assignEvent runs the per-event procedure. A nil return means the event
// was rejected by an event-scope hard constraint (the violation is
// already recorded); an under-filled assignment is still returned.
func (s *Solver) assignEvent(sc *models.SolveContext, ev *models.Event,
	hard, soft []models.ConstraintBinding, holidays map[string]bool, state *solveState) *models.Assignment {

	ctx := &EvalContext{
		Event:             ev,
		Date:              dateOf(ev.Start),
		Holidays:          holidays,
		Events:            sc.Events,
		People:            sc.People,
		Assignments:       state.assignments,
		PersonAssignments: state.personAssignments,
	}

	// Event-scope hard gate: the first violation abandons the event.
	for i := range hard {
		b := &hard[i]
		if b.Scope != models.ScopeEvent || !b.Matches(ev.Type) {
			continue
		}
		if res := s.eval.Evaluate(b, ctx); !res.Satisfied {
			state.hard = append(state.hard, models.Violation{
				ConstraintKey: b.Key,
				Severity:      models.SeverityHard,
				Message:       res.Reason,
				Entities:      []string{ev.ID},
				Penalty:       res.Penalty,
			})
			return nil
		}
	}

	if len(ev.RequiredRoles) == 0 {
		return s.assignWithoutRoles(sc, ev)
	}

	var assignees []string
	for _, rr := range ev.RequiredRoles {
		picks := s.rankCandidates(sc, ev, rr, assignees, hard, soft, ctx, state)
		if len(picks) > rr.Count {
			picks = picks[:rr.Count]
		}
		for _, pick := range picks {
			assignees = append(assignees, pick.id)
			state.soft = append(state.soft, pick.violations...)
		}
	}
	state.assignments[ev.ID] = assignees

	s.checkCoverage(sc, ev, assignees, state)

	if assignees == nil {
		assignees = []string{}
	}
	return &models.Assignment{
		EventID:     ev.ID,
		AssigneeIDs: assignees,
		ResourceID:  ev.ResourceID,
		TeamIDs:     ev.TeamIDs,
	}
}

// assignWithoutRoles handles events with no role requirements: a
// placeholder policy that seats up to two people pulled from the event's
// teams in member-list order.
func (s *Solver) assignWithoutRoles(sc *models.SolveContext, ev *models.Event) *models.Assignment {
	assignees := []string{}
	if len(ev.TeamIDs) > 0 && len(sc.Teams) > 0 {
		teamsByID := make(map[string]*models.Team, len(sc.Teams))
		for i := range sc.Teams {
			teamsByID[sc.Teams[i].ID] = &sc.Teams[i]
		}
		for _, tid := range ev.TeamIDs {
			team, ok := teamsByID[tid]
			if !ok {
				continue
			}
			members := team.MemberIDs
			if len(members) > 2 {
				members = members[:2]
			}
			assignees = append(assignees, members...)
		}
		if len(assignees) > 2 {
			assignees = assignees[:2]
		}
	}
	return &models.Assignment{
		EventID:     ev.ID,
		AssigneeIDs: assignees,
		ResourceID:  ev.ResourceID,
		TeamIDs:     ev.TeamIDs,
	}
}

// scoredCandidate is one qualifying candidate with the soft violations
// that priced them. Violations are only accumulated into the solve if
// the candidate is actually picked.
type scoredCandidate struct {
	id         string
	penalty    float64
	violations []models.Violation
}

// rankCandidates scores every qualifying candidate for one required role
// and returns them ascending by penalty. Candidates failing a
// person-scope hard constraint are excluded outright; the rest are
// priced by their soft-constraint penalties plus the fairness bias.
func (s *Solver) rankCandidates(sc *models.SolveContext, ev *models.Event, rr models.RequiredRole,
	taken []string, hard, soft []models.ConstraintBinding, ctx *EvalContext, state *solveState) []scoredCandidate {

	takenSet := make(map[string]bool, len(taken))
	for _, id := range taken {
		takenSet[id] = true
	}

	var ranked []scoredCandidate

candidates:
	for i := range sc.People {
		p := &sc.People[i]
		if takenSet[p.ID] || !p.HasRole(rr.Role) {
			continue
		}
		ctx.Person = p

		for j := range hard {
			b := &hard[j]
			if b.Scope != models.ScopePerson || !b.Matches(ev.Type) {
				continue
			}
			if res := s.eval.Evaluate(b, ctx); !res.Satisfied {
				continue candidates
			}
		}

		cand := scoredCandidate{
			id:      p.ID,
			penalty: fairnessBias * float64(len(state.personAssignments[p.ID])),
		}
		for j := range soft {
			b := &soft[j]
			if b.Scope != models.ScopePerson || !b.Matches(ev.Type) {
				continue
			}
			if res := s.eval.Evaluate(b, ctx); !res.Satisfied {
				cand.penalty += res.Penalty
				cand.violations = append(cand.violations, models.Violation{
					ConstraintKey: b.Key,
					Severity:      models.SeveritySoft,
					Message:       res.Reason,
					Entities:      []string{ev.ID, p.ID},
					Penalty:       res.Penalty,
				})
			}
		}

		ranked = append(ranked, cand)
	}
	ctx.Person = nil

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].penalty < ranked[j].penalty
	})

	return ranked
}

// checkCoverage re-validates role coverage after all roles were
// processed. A shortfall records a hard violation but keeps the
// under-filled assignment: the event still runs, just understaffed.
func (s *Solver) checkCoverage(sc *models.SolveContext, ev *models.Event, assignees []string, state *solveState) {
	peopleByID := make(map[string]*models.Person, len(sc.People))
	for i := range sc.People {
		peopleByID[sc.People[i].ID] = &sc.People[i]
	}
	for _, rr := range ev.RequiredRoles {
		have := 0
		for _, pid := range assignees {
			if p, ok := peopleByID[pid]; ok && p.HasRole(rr.Role) {
				have++
			}
		}
		if have < rr.Count {
			state.hard = append(state.hard, models.Violation{
				ConstraintKey: coverageViolationKey,
				Severity:      models.SeverityHard,
				Message: fmt.Sprintf("event %s: role %q filled %d of %d",
					ev.ID, rr.Role, have, rr.Count),
				Entities: []string{ev.ID},
			})
		}
	}
}

// computeMetrics derives the solve scorecard from the working state.
func (s *Solver) computeMetrics(state *solveState, elapsed time.Duration) models.Metrics {
	counts := make(map[string]int, len(state.personAssignments))
	for pid, evs := range state.personAssignments {
		counts[pid] = len(evs)
	}

	softScore := 0.0
	for _, v := range state.soft {
		softScore += v.Penalty
	}

	health := 0.0
	if len(state.hard) == 0 {
		health = math.Max(0.0, 100.0-softScore/10.0)
	}

	return models.Metrics{
		SolveMS:        elapsed.Milliseconds(),
		HardViolations: len(state.hard),
		SoftScore:      softScore,
		Fairness: models.FairnessMetrics{
			Stdev:           populationStdev(counts),
			PerPersonCounts: counts,
		},
		Stability:   models.StabilityMetrics{},
		HealthScore: health,
	}
}

// populationStdev is the plain population standard deviation (divide by
// N, not N-1) of the map's values; 0.0 for an empty map.
func populationStdev(counts map[string]int) float64 {
	if len(counts) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / float64(len(counts))
	variance := 0.0
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(counts)))
}
