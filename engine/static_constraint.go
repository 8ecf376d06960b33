package engine

import "github.com/crillab/plverify/bound"

// StaticConstraint is a minimal Constraint whose case splits are fixed at
// construction time. It is enough to represent a rectifier-style disjunction
// ("x <= 0 or x >= 0") without pulling in a full piecewise-linear-constraint
// implementation, which spec.md §1 treats as an external collaborator. Tests
// and the demonstration binary use it directly.
type StaticConstraint struct {
	id     string
	vars   []Variable
	active bool
	cases  []bound.CaseSplit
}

// NewStaticConstraint returns an active constraint over vars with the given
// cases. len(cases) must be >= 2 per spec.md §3.
func NewStaticConstraint(id string, vars []Variable, cases []bound.CaseSplit) *StaticConstraint {
	if len(cases) < 2 {
		panic("engine: a piecewise-linear constraint needs at least two cases")
	}
	return &StaticConstraint{id: id, vars: vars, active: true, cases: cases}
}

// IsActive reports whether the constraint has not yet been split on.
func (c *StaticConstraint) IsActive() bool { return c.active }

// SetActive flips the constraint's active flag.
func (c *StaticConstraint) SetActive(active bool) { c.active = active }

// CaseSplits returns the constraint's fixed case list.
func (c *StaticConstraint) CaseSplits() []bound.CaseSplit { return c.cases }

// Participates reports whether v is one of the constraint's variables.
func (c *StaticConstraint) Participates(v Variable) bool {
	for _, w := range c.vars {
		if w == v {
			return true
		}
	}
	return false
}

// Identity returns the constraint's id.
func (c *StaticConstraint) Identity() string { return c.id }
