package models

import "time"

// Severity classifies a constraint binding as blocking or penalized.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Scope is the entity level a constraint binding applies to. Only the
// event and person scopes are consulted by the solver's hard gates.
type Scope string

const (
	ScopeOrg      Scope = "org"
	ScopeTeam     Scope = "team"
	ScopePerson   Scope = "person"
	ScopeEvent    Scope = "event"
	ScopeSchedule Scope = "schedule"
)

// Person is someone who can be assigned to events.
type Person struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
	Skills []string `json:"skills,omitempty"`
}

// HasRole reports whether the person carries the given role.
func (p *Person) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Team is an ordered group of people.
type Team struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

// Resource is a bookable asset (room, vehicle, equipment).
type Resource struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
	Location string `json:"location,omitempty"`
}

// RequiredRole declares how many people with a role an event needs.
// List order is the scan order for greedy role-filling.
type RequiredRole struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// Event is a time-bounded occurrence that needs staffing.
type Event struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Start         time.Time      `json:"start"`
	End           time.Time      `json:"end"`
	ResourceID    string         `json:"resource_id,omitempty"`
	RequiredRoles []RequiredRole `json:"required_roles,omitempty"`
	TeamIDs       []string       `json:"team_ids,omitempty"`
	AssigneeIDs   []string       `json:"assignee_ids,omitempty"`
}

// PredicateNode is the wire form of a boolean expression tree. Exactly one
// of Any, All or Predicate is expected to be populated; a node with none of
// them evaluates to false.
type PredicateNode struct {
	Any       []PredicateNode `json:"any,omitempty"`
	All       []PredicateNode `json:"all,omitempty"`
	Predicate string          `json:"predicate,omitempty"`
	Params    map[string]any  `json:"params,omitempty"`
}

// CapRule limits how many assignments a person may take in a period.
// Period is an ISO-8601 duration string; only "P1M" is implemented.
type CapRule struct {
	Period   string `json:"period"`
	MaxCount int    `json:"max_count"`
}

// PenaltyRule describes a soft recency penalty.
type PenaltyRule struct {
	Type         string `json:"type"` // cooldown | recent_rotation
	CooldownDays int    `json:"cooldown_days,omitempty"`
	LookbackDays int    `json:"lookback_days,omitempty"`
}

// ConstraintAction is the "then" half of a binding. The fields are
// independent; when several are populated they are checked in declaration
// order and the first violation wins.
type ConstraintAction struct {
	ForbidIf           string         `json:"forbid_if,omitempty"`
	RequireRoles       []RequiredRole `json:"require_roles,omitempty"`
	EnforceMinGapHours int            `json:"enforce_min_gap_hours,omitempty"`
	EnforceCap         *CapRule       `json:"enforce_cap,omitempty"`
	PenalizeIf         *PenaltyRule   `json:"penalize_if,omitempty"`
}

// ConstraintBinding is one named rule: an optional "when" guard and a
// "then" action, applied to the event types in AppliesTo.
type ConstraintBinding struct {
	Key       string           `json:"key"`
	Scope     Scope            `json:"scope"`
	AppliesTo []string         `json:"applies_to"`
	When      *PredicateNode   `json:"when,omitempty"`
	Then      ConstraintAction `json:"then"`
	Severity  Severity         `json:"severity"`
	Weight    int              `json:"weight,omitempty"` // soft penalty scale, 10 when unset
}

// Matches reports whether the binding applies to the given event type.
func (b *ConstraintBinding) Matches(eventType string) bool {
	for _, t := range b.AppliesTo {
		if t == eventType {
			return true
		}
	}
	return false
}

// Holiday marks a calendar date, optionally as part of a long weekend.
type Holiday struct {
	Date        time.Time `json:"date"`
	LongWeekend bool      `json:"long_weekend"`
}

// Availability is a person's declared availability window. The greedy
// solver accepts it on the context but does not consult it.
type Availability struct {
	PersonID  string    `json:"person_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// OrgDefaults carries org-level tuning knobs threaded into the solve.
type OrgDefaults struct {
	ChangeMinWeight float64 `json:"change_min_weight,omitempty"`
	FairnessWeight  float64 `json:"fairness_weight,omitempty"`
	CooldownDays    int     `json:"cooldown_days,omitempty"`
}

// SolveContext is the full read-only input snapshot for one solve.
type SolveContext struct {
	Defaults     OrgDefaults         `json:"defaults"`
	People       []Person            `json:"people"`
	Teams        []Team              `json:"teams,omitempty"`
	Resources    []Resource          `json:"resources,omitempty"`
	Events       []Event             `json:"events"`
	Constraints  []ConstraintBinding `json:"constraints,omitempty"`
	Availability []Availability      `json:"availability,omitempty"`
	Holidays     []Holiday           `json:"holidays,omitempty"`
	FromDate     time.Time           `json:"from_date"`
	ToDate       time.Time           `json:"to_date"`
	Mode         string              `json:"mode,omitempty"`
	ChangeMin    bool                `json:"change_min,omitempty"`
}

// Assignment is the solver's decision for one event.
type Assignment struct {
	EventID     string   `json:"event_id"`
	AssigneeIDs []string `json:"assignee_ids"`
	ResourceID  string   `json:"resource_id,omitempty"`
	TeamIDs     []string `json:"team_ids,omitempty"`
}

// Violation records one constraint breach.
type Violation struct {
	ConstraintKey string   `json:"constraint_key"`
	Severity      Severity `json:"severity"`
	Message       string   `json:"message"`
	Entities      []string `json:"entities"`
	Penalty       float64  `json:"penalty,omitempty"`
}

// FairnessMetrics summarizes how evenly assignments are spread.
type FairnessMetrics struct {
	Stdev           float64        `json:"stdev"`
	PerPersonCounts map[string]int `json:"per_person_counts"`
}

// StabilityMetrics compares a solve against a previously published
// schedule. The greedy solver performs no such comparison, so both
// fields are always zero.
type StabilityMetrics struct {
	MovesFromPublished int `json:"moves_from_published"`
	AffectedPeople     int `json:"affected_people"`
}

// Metrics is the per-solve scorecard.
type Metrics struct {
	SolveMS        int64            `json:"solve_ms"`
	HardViolations int              `json:"hard_violations"`
	SoftScore      float64          `json:"soft_score"`
	Fairness       FairnessMetrics  `json:"fairness"`
	Stability      StabilityMetrics `json:"stability"`
	HealthScore    float64          `json:"health_score"`
}

// SolverInfo identifies the algorithm that produced a bundle.
type SolverInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Strategy string `json:"strategy"`
}

// ViolationSet splits violations by severity.
type ViolationSet struct {
	Hard []Violation `json:"hard"`
	Soft []Violation `json:"soft"`
}

// SolutionBundle is the complete solve output.
type SolutionBundle struct {
	GeneratedAt time.Time    `json:"generated_at"`
	FromDate    time.Time    `json:"from_date"`
	ToDate      time.Time    `json:"to_date"`
	Mode        string       `json:"mode,omitempty"`
	ChangeMin   bool         `json:"change_min"`
	Solver      SolverInfo   `json:"solver"`
	Assignments []Assignment `json:"assignments"`
	Metrics     Metrics      `json:"metrics"`
	Violations  ViolationSet `json:"violations"`
}
