package bound

import (
	"math"
	"testing"
)

func TestInitializeAllocatesUnboundedVariables(t *testing.T) {
	m := NewManager()
	m.Initialize(5)
	if m.NumVariables() != 5 {
		t.Fatalf("NumVariables() = %d, want 5", m.NumVariables())
	}
	for v := Variable(0); v < 5; v++ {
		if !math.IsInf(m.LowerBound(v), -1) || !math.IsInf(m.UpperBound(v), 1) {
			t.Fatalf("variable %d not unbounded: [%g, %g]", v, m.LowerBound(v), m.UpperBound(v))
		}
	}
	if !m.ConsistentBounds() {
		t.Fatal("freshly initialized manager should be consistent")
	}
}

func TestSetBoundsMonotone(t *testing.T) {
	m := NewManager()
	m.Initialize(1)
	v := Variable(0)

	if !m.SetLowerBound(v, 0) {
		t.Fatal("first lower bound should be accepted")
	}
	if m.SetLowerBound(v, 0) {
		t.Fatal("equal lower bound must be rejected")
	}
	if m.SetLowerBound(v, -1) {
		t.Fatal("worse lower bound must be rejected")
	}
	if !m.SetLowerBound(v, 0.5) {
		t.Fatal("strictly better lower bound must be accepted")
	}
	if m.LowerBound(v) != 0.5 {
		t.Fatalf("LowerBound = %g, want 0.5", m.LowerBound(v))
	}
}

func TestCrossingBoundsMarksInfeasible(t *testing.T) {
	m := NewManager()
	m.Initialize(1)
	v := Variable(0)
	m.SetUpperBound(v, 1)
	m.SetLowerBound(v, 2)

	if m.ConsistentBounds() {
		t.Fatal("expected infeasibility after crossing bounds")
	}
	if m.InconsistentVariable() != v {
		t.Fatalf("InconsistentVariable() = %d, want %d", m.InconsistentVariable(), v)
	}
}

func TestDrainTightenings(t *testing.T) {
	m := NewManager()
	m.Initialize(2)
	m.SetLowerBound(0, 1)
	m.SetUpperBound(1, 2)

	log := m.DrainTightenings()
	if len(log) != 2 {
		t.Fatalf("len(log) = %d, want 2", len(log))
	}
	if len(m.DrainTightenings()) != 0 {
		t.Fatal("second drain should be empty")
	}
}

// TestContextRoundTrip is spec.md §8 scenario 2: three nested push/store
// layers setting distinct bound tables must unwind exactly.
func TestContextRoundTrip(t *testing.T) {
	m := NewManager()
	m.Initialize(5)

	for v := Variable(0); v < 5; v++ {
		m.SetLowerBound(v, 0)
		m.SetUpperBound(v, 10)
	}

	m.Push() // level 1 == L1
	for v := Variable(0); v < 5; v++ {
		m.SetLowerBound(v, 1)
		m.SetUpperBound(v, 9)
	}

	m.Push() // level 2 == L2
	for v := Variable(0); v < 5; v++ {
		m.SetLowerBound(v, 2)
		m.SetUpperBound(v, 8)
	}

	m.Pop() // back to L1
	for v := Variable(0); v < 5; v++ {
		if m.LowerBound(v) != 1 || m.UpperBound(v) != 9 {
			t.Fatalf("var %d = [%g, %g] after first pop, want [1, 9]", v, m.LowerBound(v), m.UpperBound(v))
		}
	}

	m.Pop() // back to L0
	for v := Variable(0); v < 5; v++ {
		if m.LowerBound(v) != 0 || m.UpperBound(v) != 10 {
			t.Fatalf("var %d = [%g, %g] after second pop, want [0, 10]", v, m.LowerBound(v), m.UpperBound(v))
		}
	}
}

func TestPopUndoesInfeasibility(t *testing.T) {
	m := NewManager()
	m.Initialize(1)
	m.SetLowerBound(0, 0)
	m.SetUpperBound(0, 10)

	m.Push()
	m.SetLowerBound(0, 20) // crosses upper bound of 10
	if m.ConsistentBounds() {
		t.Fatal("expected infeasibility before pop")
	}

	m.Pop()
	if !m.ConsistentBounds() {
		t.Fatal("pop should have undone the crossing bound")
	}
}

func TestStoreRestoreLocalBounds(t *testing.T) {
	m := NewManager()
	m.Initialize(2)
	m.SetLowerBound(0, 1)
	m.SetUpperBound(1, 9)

	snap := m.StoreLocalBounds()
	m.SetLowerBound(0, 5)
	m.SetUpperBound(1, 6)

	m.RestoreLocalBounds(snap)
	if m.LowerBound(0) != 1 || m.UpperBound(1) != 9 {
		t.Fatalf("bounds after restore = [%g,.. %g], want [1, .. 9]", m.LowerBound(0), m.UpperBound(1))
	}
}

func TestExplanationResetsOnBoundChange(t *testing.T) {
	m := NewManager()
	m.Initialize(1)
	v := Variable(0)

	m.SetExplanation(Explanation{{Row: 2, Coeff: 1.5}}, v, Lower)
	if m.IsExplanationTrivial(v, Lower) {
		t.Fatal("explanation should not be trivial right after SetExplanation")
	}

	m.SetLowerBound(v, 3)
	if !m.IsExplanationTrivial(v, Lower) {
		t.Fatal("explanation should reset to trivial when the bound changes")
	}
}

func TestComputeSparseRowBound(t *testing.T) {
	// x + y + z = 2, x,y,z in [0,1]; the row implies x in [0, 2], which is
	// no improvement over x's current [0, 1] (spec.md §8 scenario 1, first
	// half).
	m := NewManager()
	m.Initialize(3)
	for v := Variable(0); v < 3; v++ {
		m.SetLowerBound(v, 0)
		m.SetUpperBound(v, 1)
	}
	row := SparseRow{
		Entries: []Entry{{Variable: 0, Coeff: 1}, {Variable: 1, Coeff: 1}, {Variable: 2, Coeff: 1}},
		RHS:     2,
	}
	lb, ok := m.ComputeSparseRowBound(row, false, 0)
	if !ok || lb != 0 {
		t.Fatalf("lb = %g, ok=%v, want 0, true", lb, ok)
	}
	ub, ok := m.ComputeSparseRowBound(row, true, 0)
	if !ok || ub != 2 {
		t.Fatalf("ub = %g, ok=%v, want 2, true", ub, ok)
	}

	// Row x + y + z = 3 should derive lb(x) >= 1.
	row.RHS = 3
	lb, ok = m.ComputeSparseRowBound(row, false, 0)
	if !ok || lb != 1 {
		t.Fatalf("lb = %g, ok=%v, want 1, true", lb, ok)
	}
}

func TestComputeRowBound(t *testing.T) {
	m := NewManager()
	m.Initialize(3)
	m.SetLowerBound(1, 0)
	m.SetUpperBound(1, 1)
	m.SetLowerBound(2, 0)
	m.SetUpperBound(2, 1)

	row := TableauRow{
		Basic:   0,
		Beta:    0.5,
		Entries: []Entry{{Variable: 1, Coeff: 1}, {Variable: 2, Coeff: -1}},
	}
	up := m.ComputeRowBound(row, true)  // beta + 1*ub(1) + (-1)*lb(2) = 0.5+1-0 = 1.5
	low := m.ComputeRowBound(row, false) // beta + 1*lb(1) + (-1)*ub(2) = 0.5+0-1 = -0.5
	if up != 1.5 {
		t.Fatalf("upper row bound = %g, want 1.5", up)
	}
	if low != -0.5 {
		t.Fatalf("lower row bound = %g, want -0.5", low)
	}
}
