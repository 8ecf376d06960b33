package bound

import (
	"math"

	"github.com/crillab/plverify/ctxstack"
	"gonum.org/v1/gonum/floats/scalar"
)

// epsTighten is the tolerance below which two bound values are considered
// equal, per spec.md §3 ("Equality within a rounding tolerance (ε_tighten) is
// rejected"). It mirrors the role of Marabou's FloatUtils::gt/lt.
const epsTighten = 1e-10

// gt reports whether a is strictly greater than b outside epsTighten.
func gt(a, b float64) bool {
	return a > b && !scalar.EqualWithinAbs(a, b, epsTighten)
}

// lt reports whether a is strictly less than b outside epsTighten.
func lt(a, b float64) bool {
	return a < b && !scalar.EqualWithinAbs(a, b, epsTighten)
}

// RowEntry is one term of an Explanation: the coefficient of row Row in the
// certifying linear combination.
type RowEntry struct {
	Row   int
	Coeff float64
}

// Explanation is the certifying linear combination of rows that derives a
// bound from the initial bounds (spec.md §3 "Explanation Vector"). A nil or
// empty Explanation is trivial.
type Explanation []RowEntry

// Manager is spec.md's BoundManager: versioned interval bounds over a
// ctxstack.Stack, a tightening log, and optional per-bound explanations.
//
// Manager owns its own ctxstack.Stack. Callers that need the decision stack's
// depth to track the bound manager's context level 1:1 (spec.md §3 invariant)
// should drive both through the same push()/pop() call sites, as
// decision.Stack does.
type Manager struct {
	stack *ctxstack.Stack

	lower     []*ctxstack.Cell[float64]
	upper     []*ctxstack.Cell[float64]
	explLower []*ctxstack.Cell[Explanation]
	explUpper []*ctxstack.Cell[Explanation]

	infeasible      bool
	inconsistentVar Variable

	tightenings    []Tightening
	tighteningMark []int // length of tightenings at each push, for unwinding on pop
}

// NewManager returns a Manager with no variables registered. Call Initialize
// or RegisterNewVariable to populate it.
func NewManager() *Manager {
	return &Manager{stack: &ctxstack.Stack{}}
}

// Initialize allocates n variables, each bound to (-inf, +inf), and clears
// any infeasibility flag. It is meant to be called once, before the first
// push.
func (m *Manager) Initialize(n int) {
	m.lower = make([]*ctxstack.Cell[float64], 0, n)
	m.upper = make([]*ctxstack.Cell[float64], 0, n)
	m.explLower = make([]*ctxstack.Cell[Explanation], 0, n)
	m.explUpper = make([]*ctxstack.Cell[Explanation], 0, n)
	for i := 0; i < n; i++ {
		m.RegisterNewVariable()
	}
	m.infeasible = false
}

// RegisterNewVariable appends a new variable bound to (-inf, +inf) and
// returns its identifier.
func (m *Manager) RegisterNewVariable() Variable {
	v := Variable(len(m.lower))
	m.lower = append(m.lower, ctxstack.NewCell(m.stack, math.Inf(-1)))
	m.upper = append(m.upper, ctxstack.NewCell(m.stack, math.Inf(1)))
	m.explLower = append(m.explLower, ctxstack.NewCell[Explanation](m.stack, nil))
	m.explUpper = append(m.explUpper, ctxstack.NewCell[Explanation](m.stack, nil))
	return v
}

// NumVariables returns how many variables are registered.
func (m *Manager) NumVariables() int {
	return len(m.lower)
}

// LowerBound returns v's current lower bound.
func (m *Manager) LowerBound(v Variable) float64 {
	return m.lower[v].Get()
}

// UpperBound returns v's current upper bound.
func (m *Manager) UpperBound(v Variable) float64 {
	return m.upper[v].Get()
}

// SetLowerBound accepts x as v's new lower bound iff it strictly improves the
// current one (spec.md §4.A). It returns whether the bound was accepted. On
// acceptance it appends to the tightening log; if the new bound crosses the
// upper bound, it additionally marks the manager infeasible with v as the
// inconsistent variable.
func (m *Manager) SetLowerBound(v Variable, x float64) bool {
	if !gt(x, m.lower[v].Get()) {
		return false
	}
	m.lower[v].Set(x)
	m.explLower[v].Set(nil)
	m.record(Bound{Variable: v, Value: x, Kind: Lower}, CauseExternal)
	if gt(m.lower[v].Get(), m.upper[v].Get()) && !m.infeasible {
		m.infeasible = true
		m.inconsistentVar = v
	}
	return true
}

// SetUpperBound is SetLowerBound's mirror image for upper bounds.
func (m *Manager) SetUpperBound(v Variable, x float64) bool {
	if !lt(x, m.upper[v].Get()) {
		return false
	}
	m.upper[v].Set(x)
	m.explUpper[v].Set(nil)
	m.record(Bound{Variable: v, Value: x, Kind: Upper}, CauseExternal)
	if gt(m.lower[v].Get(), m.upper[v].Get()) && !m.infeasible {
		m.infeasible = true
		m.inconsistentVar = v
	}
	return true
}

// SetLowerBoundCaused is SetLowerBound with an explicit Cause, used by the
// row tightener so its tightenings are attributed correctly in statistics.
func (m *Manager) SetLowerBoundCaused(v Variable, x float64, cause Cause) bool {
	if !gt(x, m.lower[v].Get()) {
		return false
	}
	m.lower[v].Set(x)
	m.explLower[v].Set(nil)
	m.record(Bound{Variable: v, Value: x, Kind: Lower}, cause)
	if gt(m.lower[v].Get(), m.upper[v].Get()) && !m.infeasible {
		m.infeasible = true
		m.inconsistentVar = v
	}
	return true
}

// SetUpperBoundCaused is SetUpperBound with an explicit Cause.
func (m *Manager) SetUpperBoundCaused(v Variable, x float64, cause Cause) bool {
	if !lt(x, m.upper[v].Get()) {
		return false
	}
	m.upper[v].Set(x)
	m.explUpper[v].Set(nil)
	m.record(Bound{Variable: v, Value: x, Kind: Upper}, cause)
	if gt(m.lower[v].Get(), m.upper[v].Get()) && !m.infeasible {
		m.infeasible = true
		m.inconsistentVar = v
	}
	return true
}

func (m *Manager) record(b Bound, cause Cause) {
	m.tightenings = append(m.tightenings, Tightening{Bound: b, Cause: cause})
}

// ConsistentBounds reports whether the manager as a whole is free of the
// infeasibility flag.
func (m *Manager) ConsistentBounds() bool {
	return !m.infeasible
}

// ConsistentBoundsFor reports whether v individually has lo <= hi. Unlike
// ConsistentBounds, it does not consult the sticky infeasibility flag.
func (m *Manager) ConsistentBoundsFor(v Variable) bool {
	return !gt(m.lower[v].Get(), m.upper[v].Get())
}

// InconsistentVariable returns the variable that first caused infeasibility,
// valid only when ConsistentBounds() is false.
func (m *Manager) InconsistentVariable() Variable {
	return m.inconsistentVar
}

// ClearInfeasible clears the infeasibility flag. Used when a caller has
// already reacted to the infeasibility (e.g. by backtracking) and the
// manager's bounds themselves have been restored to a consistent state.
func (m *Manager) ClearInfeasible() {
	m.infeasible = false
}

// DrainTightenings returns the tightening log accumulated since the last
// drain and clears it (spec.md §4.A "move current log out").
func (m *Manager) DrainTightenings() []Tightening {
	out := m.tightenings
	m.tightenings = nil
	// Every open level's mark now points at the start of the emptied log.
	for i := range m.tighteningMark {
		m.tighteningMark[i] = 0
	}
	return out
}

// Push opens a new context level shared by every bound and explanation cell,
// and marks the current length of the tightening log so a later Pop can
// discard tightenings that belonged only to the level being discarded.
func (m *Manager) Push() {
	m.tighteningMark = append(m.tighteningMark, len(m.tightenings))
	m.stack.Push()
}

// Pop reverts every bound and explanation to the value it held when the
// current level was entered, undoes any infeasibility caused within that
// level's lifetime, and discards tightenings recorded within it.
func (m *Manager) Pop() {
	m.stack.Pop()
	mark := m.tighteningMark[len(m.tighteningMark)-1]
	m.tighteningMark = m.tighteningMark[:len(m.tighteningMark)-1]
	m.tightenings = m.tightenings[:mark]
	// Bounds are back to a prior, necessarily consistent-or-already-flagged
	// state; re-derive infeasibility from the restored values rather than
	// trusting a flag that might have been set inside the popped level.
	m.infeasible = false
	for v := range m.lower {
		if gt(m.lower[v].Get(), m.upper[v].Get()) {
			m.infeasible = true
			m.inconsistentVar = Variable(v)
			break
		}
	}
}

// PopTo pops until Level() == target.
func (m *Manager) PopTo(target int) {
	for m.Level() > target {
		m.Pop()
	}
}

// Level returns the manager's current context level.
func (m *Manager) Level() int {
	return m.stack.Level()
}

// LocalBounds is a bounds-only snapshot produced by StoreLocalBounds, used by
// an Engine implementation to satisfy spec.md's "at minimum: the bound
// vector" snapshot requirement without a full tableau snapshot.
type LocalBounds struct {
	lower []float64
	upper []float64
}

// StoreLocalBounds copies every current lower/upper bound into a LocalBounds
// snapshot, independent of the context stack (spec.md §4.A: "checkpoint used
// jointly with ContextStack so a level reverts together with the decision
// frame").
func (m *Manager) StoreLocalBounds() LocalBounds {
	snap := LocalBounds{
		lower: make([]float64, len(m.lower)),
		upper: make([]float64, len(m.upper)),
	}
	for i := range m.lower {
		snap.lower[i] = m.lower[i].Get()
		snap.upper[i] = m.upper[i].Get()
	}
	return snap
}

// RestoreLocalBounds writes every bound in snap back into the manager at the
// current context level, via Set (so the write is itself undoable by a
// subsequent Pop, same as any other bound write).
func (m *Manager) RestoreLocalBounds(snap LocalBounds) {
	for i := range snap.lower {
		m.lower[i].Set(snap.lower[i])
		m.upper[i].Set(snap.upper[i])
	}
	m.infeasible = false
	for v := range m.lower {
		if gt(m.lower[v].Get(), m.upper[v].Get()) {
			m.infeasible = true
			m.inconsistentVar = Variable(v)
			break
		}
	}
}

// SetExplanation installs exp as v's explanation for the given Kind.
func (m *Manager) SetExplanation(exp Explanation, v Variable, kind Kind) {
	if kind == Lower {
		m.explLower[v].Set(exp)
	} else {
		m.explUpper[v].Set(exp)
	}
}

// Explanation returns v's current explanation for the given Kind, or nil if
// trivial.
func (m *Manager) Explanation(v Variable, kind Kind) Explanation {
	if kind == Lower {
		return m.explLower[v].Get()
	}
	return m.explUpper[v].Get()
}

// ResetExplanation clears v's explanation for the given Kind back to trivial.
func (m *Manager) ResetExplanation(v Variable, kind Kind) {
	m.SetExplanation(nil, v, kind)
}

// IsExplanationTrivial reports whether v's explanation for the given Kind is
// empty.
func (m *Manager) IsExplanationTrivial(v Variable, kind Kind) bool {
	return len(m.Explanation(v, kind)) == 0
}

// ComputeSparseRowBound derives the bound side of row implied by the current
// bounds of every variable in row except target, the way tighten.Tightener's
// constraint-matrix pass does internally; it is exposed here too since
// spec.md §4.A lists it directly on BoundManager. upper selects whether the
// upper or lower bound of target is being derived. ok is false if target does
// not appear in row or its coefficient could not be isolated.
func (m *Manager) ComputeSparseRowBound(row SparseRow, upper bool, target Variable) (value float64, ok bool) {
	var coeff float64
	found := false
	for _, e := range row.Entries {
		if e.Variable == target {
			coeff = e.Coeff
			found = true
			break
		}
	}
	if !found || coeff == 0 {
		return 0, false
	}
	var restLB, restUB float64
	for _, e := range row.Entries {
		if e.Variable == target {
			continue
		}
		if e.Coeff > 0 {
			restLB += e.Coeff * m.lower[e.Variable].Get()
			restUB += e.Coeff * m.upper[e.Variable].Get()
		} else {
			restLB += e.Coeff * m.upper[e.Variable].Get()
			restUB += e.Coeff * m.lower[e.Variable].Get()
		}
	}
	lowerCandidate := (row.RHS - restUB) / coeff
	upperCandidate := (row.RHS - restLB) / coeff
	if coeff < 0 {
		lowerCandidate, upperCandidate = upperCandidate, lowerCandidate
	}
	if upper {
		return upperCandidate, true
	}
	return lowerCandidate, true
}

// ComputeRowBound derives a bound on row.Basic from the current bounds of
// every non-basic variable in row, the way tighten.Tightener's
// inverted-basis pass does for the left-hand side of y = Σ cᵢ xᵢ + β. upper
// selects whether the upper or lower bound is being derived.
func (m *Manager) ComputeRowBound(row TableauRow, upper bool) float64 {
	value := row.Beta
	for _, e := range row.Entries {
		if (e.Coeff > 0) == upper {
			value += e.Coeff * m.upper[e.Variable].Get()
		} else {
			value += e.Coeff * m.lower[e.Variable].Get()
		}
	}
	return value
}
