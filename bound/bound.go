// Package bound implements spec.md's BoundManager: versioned interval bounds
// per variable, the tightening log callers drain to propagate bounds
// outward, and the optional per-bound explanation vectors used when proof
// production is enabled.
package bound

import "fmt"

// Variable is a 0-based variable identifier, shared by every package in this
// module (spec.md §3: "An identifier v ∈ [0, N)").
type Variable int

// Kind distinguishes a lower bound from an upper bound.
type Kind byte

const (
	// Lower is the LB kind.
	Lower Kind = iota
	// Upper is the UB kind.
	Upper
)

func (k Kind) String() string {
	switch k {
	case Lower:
		return "LB"
	case Upper:
		return "UB"
	default:
		panic("bound: invalid Kind")
	}
}

// Bound is a single accepted or proposed bound on a variable, spec.md §3.
type Bound struct {
	Variable Variable
	Value    float64
	Kind     Kind
}

func (b Bound) String() string {
	return fmt.Sprintf("%s(x%d) = %g", b.Kind, b.Variable, b.Value)
}

// Equation is part of the data model spec.md §3 allows inside a CaseSplit,
// though §9 notes the decision stack asserts no split it processes carries
// any. It is defined here, not used by this core's own logic, purely so the
// data model stays complete for producers/parsers outside this core's scope.
type Equation struct {
	Coeffs []Entry
	RHS    float64
}

// CaseSplit is one of the alternative sets of bound tightenings (and,
// per the data model, zero or more equations) a piecewise-linear constraint
// decomposes into (spec.md §3 "Piecewise-Linear Constraint" / "CaseSplit").
type CaseSplit struct {
	Bounds    []Bound
	Equations []Equation
}

// Equal reports whether two case splits carry the same bounds in the same
// order, used by the certificate tree to address children by case-equality
// (spec.md §4.E).
func (c CaseSplit) Equal(other CaseSplit) bool {
	if len(c.Bounds) != len(other.Bounds) || len(c.Equations) != len(other.Equations) {
		return false
	}
	for i, b := range c.Bounds {
		if b != other.Bounds[i] {
			return false
		}
	}
	return true
}

// Entry is a single (variable, coefficient) pair, shared by Equation and the
// tighten package's sparse rows.
type Entry struct {
	Variable Variable
	Coeff    float64
}

// Cause records which mechanism produced a Tightening. It is consumed only
// for statistics (SPEC_FULL.md §9's "per-bound tightening cause tagging"
// carried over from the original implementation) and never changes control
// flow.
type Cause byte

const (
	// CauseConstraintMatrix is a tightening derived from a row of the
	// original constraint matrix A.
	CauseConstraintMatrix Cause = iota
	// CauseInvertedBasis is a tightening derived from a row of the
	// inverted-basis tableau.
	CauseInvertedBasis
	// CausePivotRow is a tightening derived from the pivot-row shortcut.
	CausePivotRow
	// CauseExternal is a tightening applied by a caller directly (e.g. a
	// piecewise-linear constraint's own propagation), not by this core's
	// tightener.
	CauseExternal
)

// Tightening is one accepted bound change, as recorded in the manager's
// tightening log (spec.md §3 "Tightening Record").
type Tightening struct {
	Bound Bound
	Cause Cause
}
