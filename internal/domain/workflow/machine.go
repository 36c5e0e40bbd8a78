package workflow

import (
	"context"
	"fmt"
)

// Guard vetoes a configured transition when it returns false
type Guard func(ctx context.Context) bool

type rule struct {
	from    State
	trigger Trigger
	to      State
	guard   Guard
}

// Builder collects the transition table of a lifecycle
type Builder struct {
	rules []rule
}

// NewBuilder creates an empty transition table
func NewBuilder() *Builder {
	return &Builder{}
}

// From starts configuring the transitions leaving state
func (b *Builder) From(state State) *Transitions {
	mustBeValid(state)
	return &Transitions{builder: b, from: state}
}

// Build freezes the table into a machine positioned at initial
func (b *Builder) Build(initial State) *Machine {
	mustBeValid(initial)
	return &Machine{
		state: initial,
		rules: append([]rule(nil), b.rules...),
	}
}

// Transitions configures the outgoing edges of one state
type Transitions struct {
	builder *Builder
	from    State
}

// Permit allows trigger to move the machine to state to
func (t *Transitions) Permit(trigger Trigger, to State) *Transitions {
	return t.PermitIf(trigger, to, nil)
}

// PermitIf allows trigger to move the machine to state to while guard passes.
// Edges for the same trigger are tried in configuration order.
func (t *Transitions) PermitIf(trigger Trigger, to State, guard Guard) *Transitions {
	mustBeValid(to)
	t.builder.rules = append(t.builder.rules, rule{from: t.from, trigger: trigger, to: to, guard: guard})
	return t
}

// Machine tracks the state of one run
type Machine struct {
	state State
	rules []rule
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// Fire takes the first edge for trigger whose guard passes. With no edge
// configured it returns ErrInvalidTransition; when every guard vetoes it
// returns ErrGuardFailed. The state is unchanged on error.
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	configured := false
	for _, r := range m.rules {
		if r.from != m.state || r.trigger != trigger {
			continue
		}
		configured = true
		if r.guard == nil || r.guard(ctx) {
			m.state = r.to
			return nil
		}
	}

	if !configured {
		return fmt.Errorf("%w: %s is not allowed from %s", ErrInvalidTransition, trigger, m.state)
	}
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.state)
}

// Allowed lists, in configuration order, the triggers that Fire would
// currently accept
func (m *Machine) Allowed(ctx context.Context) []Trigger {
	seen := make(map[Trigger]bool)
	allowed := []Trigger{}
	for _, r := range m.rules {
		if r.from != m.state || seen[r.trigger] {
			continue
		}
		if r.guard == nil || r.guard(ctx) {
			seen[r.trigger] = true
			allowed = append(allowed, r.trigger)
		}
	}
	return allowed
}

func mustBeValid(s State) {
	if !s.IsValid() {
		panic(fmt.Sprintf("unknown run state %q", s))
	}
}
