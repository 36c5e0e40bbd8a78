package payroll

import (
	"sort"

	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Strategy names, in precedence order
const (
	StrategyManual         = "manual"
	StrategyDepartmentAuto = "department-auto"
	StrategySystemAuto     = "system-auto"
)

// Outcome is what a strategy decided for one candidate component
type Outcome string

const (
	OutcomeIncluded   Outcome = "included"
	OutcomeCovered    Outcome = "covered"
	OutcomeOutOfScope Outcome = "out-of-scope"
)

// Decision records a strategy's verdict on one candidate
type Decision struct {
	Strategy      string  `json:"strategy"`
	ComponentID   int64   `json:"component_id"`
	ComponentName string  `json:"component_name"`
	Outcome       Outcome `json:"outcome"`
	Reason        string  `json:"reason,omitempty"`
}

// Resolved is one component that applies to a staff member
type Resolved struct {
	Component    *entity.PayComponent `json:"component"`
	Amount       decimal.Decimal      `json:"amount"`
	AutoAssigned bool                 `json:"auto_assigned"`
	Strategy     string               `json:"strategy"`
}

// Input is everything a resolution needs for one staff member. Assignments
// must already be filtered to those effective in the period and carry their
// joined Component.
type Input struct {
	Staff          *entity.Staff
	Department     string
	Assignments    []*entity.StaffPayAssignment
	AutoComponents []*entity.PayComponent
}

// Coverage tracks which component ids and signatures are already paid
type Coverage struct {
	ids        map[int64]bool
	signatures map[entity.Signature]bool
}

// NewCoverage creates an empty coverage set
func NewCoverage() *Coverage {
	return &Coverage{
		ids:        make(map[int64]bool),
		signatures: make(map[entity.Signature]bool),
	}
}

// Covers reports whether c is covered by id or by signature
func (cv *Coverage) Covers(c *entity.PayComponent) bool {
	return cv.ids[c.ID] || cv.signatures[c.Signature()]
}

// Mark records c as covered
func (cv *Coverage) Mark(c *entity.PayComponent) {
	cv.ids[c.ID] = true
	cv.signatures[c.Signature()] = true
}

// Strategy is one step of the precedence chain. Strategies run in order and
// share a Coverage, so an earlier strategy suppresses same-signature
// candidates of a later one.
type Strategy interface {
	Name() string
	Resolve(in *Input, cov *Coverage) ([]Resolved, []Decision)
}

// Resolution is the ordered result for one staff member plus its decision log
type Resolution struct {
	StaffID    int64      `json:"staff_id"`
	Department string     `json:"department"`
	Components []Resolved `json:"components"`
	Decisions  []Decision `json:"decisions"`
}

// Resolver applies strategies in order
type Resolver struct {
	strategies []Strategy
}

// NewResolver creates a resolver. With no strategies it uses DefaultStrategies.
func NewResolver(strategies ...Strategy) *Resolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Resolver{strategies: strategies}
}

// DefaultStrategies returns manual > department-auto > system-auto
func DefaultStrategies() []Strategy {
	return []Strategy{ManualStrategy{}, DepartmentAutoStrategy{}, SystemAutoStrategy{}}
}

// Strategies returns the names of the configured strategies in order
func (r *Resolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve produces the applicable components for in.Staff
func (r *Resolver) Resolve(in Input) *Resolution {
	if in.Department == "" {
		in.Department = DeriveDepartment(in.Staff)
	}
	in.AutoComponents = sortByCreation(in.AutoComponents)

	res := &Resolution{Department: in.Department}
	if in.Staff != nil {
		res.StaffID = in.Staff.ID
	}

	cov := NewCoverage()
	for _, s := range r.strategies {
		included, decisions := s.Resolve(&in, cov)
		res.Components = append(res.Components, included...)
		res.Decisions = append(res.Decisions, decisions...)
	}
	return res
}

func sortByCreation(components []*entity.PayComponent) []*entity.PayComponent {
	sorted := make([]*entity.PayComponent, 0, len(components))
	for _, c := range components {
		if c != nil {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// ManualStrategy includes every explicit assignment. Manual assignments are
// authoritative and are never suppressed.
type ManualStrategy struct{}

func (ManualStrategy) Name() string { return StrategyManual }

func (ManualStrategy) Resolve(in *Input, cov *Coverage) ([]Resolved, []Decision) {
	var included []Resolved
	var decisions []Decision
	for _, a := range in.Assignments {
		if a == nil || a.Component == nil {
			continue
		}
		included = append(included, Resolved{
			Component: a.Component,
			Amount:    a.Amount,
			Strategy:  StrategyManual,
		})
		decisions = append(decisions, Decision{
			Strategy:      StrategyManual,
			ComponentID:   a.Component.ID,
			ComponentName: a.Component.Name,
			Outcome:       OutcomeIncluded,
		})
		cov.Mark(a.Component)
	}
	return included, decisions
}

// DepartmentAutoStrategy includes auto-assign components scoped to the staff
// member's department.
type DepartmentAutoStrategy struct{}

func (DepartmentAutoStrategy) Name() string { return StrategyDepartmentAuto }

func (DepartmentAutoStrategy) Resolve(in *Input, cov *Coverage) ([]Resolved, []Decision) {
	var included []Resolved
	var decisions []Decision
	for _, c := range in.AutoComponents {
		if !c.AutoAssign || c.IsSystemWide() {
			continue
		}
		d := Decision{Strategy: StrategyDepartmentAuto, ComponentID: c.ID, ComponentName: c.Name}
		switch {
		case !SameDepartment(c.Department, in.Department):
			d.Outcome = OutcomeOutOfScope
			d.Reason = "department " + c.Department + " does not match " + in.Department
		case cov.Covers(c):
			d.Outcome = OutcomeCovered
		default:
			d.Outcome = OutcomeIncluded
			included = append(included, autoResolved(c, StrategyDepartmentAuto))
			cov.Mark(c)
		}
		decisions = append(decisions, d)
	}
	return included, decisions
}

// SystemAutoStrategy includes system-wide auto-assign components not yet covered
type SystemAutoStrategy struct{}

func (SystemAutoStrategy) Name() string { return StrategySystemAuto }

func (SystemAutoStrategy) Resolve(in *Input, cov *Coverage) ([]Resolved, []Decision) {
	var included []Resolved
	var decisions []Decision
	for _, c := range in.AutoComponents {
		if !c.AutoAssign || !c.IsSystemWide() {
			continue
		}
		d := Decision{Strategy: StrategySystemAuto, ComponentID: c.ID, ComponentName: c.Name}
		if cov.Covers(c) {
			d.Outcome = OutcomeCovered
		} else {
			d.Outcome = OutcomeIncluded
			included = append(included, autoResolved(c, StrategySystemAuto))
			cov.Mark(c)
		}
		decisions = append(decisions, d)
	}
	return included, decisions
}

func autoResolved(c *entity.PayComponent, strategy string) Resolved {
	return Resolved{
		Component:    c,
		Amount:       c.DefaultAmount,
		AutoAssigned: true,
		Strategy:     strategy,
	}
}
