package decision

import (
	"testing"

	"github.com/crillab/plverify/bound"
	"github.com/crillab/plverify/certificate"
	"github.com/crillab/plverify/engine"
)

func twoCaseConstraint() *engine.StaticConstraint {
	return engine.NewStaticConstraint("x-sign", []engine.Variable{0}, []bound.CaseSplit{
		{Bounds: []bound.Bound{{Variable: 0, Value: 0, Kind: bound.Lower}}}, // x >= 0
		{Bounds: []bound.Bound{{Variable: 0, Value: 0, Kind: bound.Upper}}}, // x <= 0
	})
}

// TestSplitThenPopRestoresAndTriesNextCase is spec.md §8 scenario 3: the
// active case x >= 0 is infeasible against x in [-5, -1]; popSplit must
// restore the pre-split bounds and apply x <= 0, and allSplitsSoFar() then
// reports exactly that one applied case.
func TestSplitThenPopRestoresAndTriesNextCase(t *testing.T) {
	bm := bound.NewManager()
	bm.Initialize(1)
	bm.SetLowerBound(0, -5)
	bm.SetUpperBound(0, -1)

	ref := engine.NewReference(bm, false)
	c := twoCaseConstraint()
	ref.AddConstraint(c)

	st := NewStack(bm, ref, nil, nil, 1, 1)
	st.ReportViolatedConstraint(c)
	if !st.NeedToSplit() {
		t.Fatal("expected NeedToSplit after one violation at threshold 1")
	}

	st.PerformSplit()
	if bm.ConsistentBounds() {
		t.Fatal("expected infeasibility: x >= 0 crosses the existing upper bound of -1")
	}
	if st.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", st.Depth())
	}

	if !st.PopSplit() {
		t.Fatal("expected PopSplit to find a consistent alternative (x <= 0)")
	}
	if bm.LowerBound(0) != -5 || bm.UpperBound(0) != -1 {
		t.Fatalf("bounds after pop = [%g, %g], want the pre-split [-5, -1]", bm.LowerBound(0), bm.UpperBound(0))
	}
	if !bm.ConsistentBounds() {
		t.Fatal("expected consistent bounds once x <= 0 is applied")
	}

	splits := st.AllSplitsSoFar()
	if len(splits) != 1 {
		t.Fatalf("AllSplitsSoFar() = %v, want exactly one split", splits)
	}
	want := bound.CaseSplit{Bounds: []bound.Bound{{Variable: 0, Value: 0, Kind: bound.Upper}}}
	if !splits[0].Equal(want) {
		t.Fatalf("AllSplitsSoFar()[0] = %v, want x <= 0", splits[0])
	}
}

// TestPopSplitReturnsFalseWhenStackEmpty is the UNSAT terminal case: popping
// past the last alternative of the last frame empties the stack.
func TestPopSplitReturnsFalseWhenStackEmpty(t *testing.T) {
	bm := bound.NewManager()
	bm.Initialize(1)
	// Bounds chosen so that neither x >= 1 nor x <= -1 is consistent with
	// the fixed [0, 0] range: both alternatives are infeasible.
	bm.SetLowerBound(0, 0)
	bm.SetUpperBound(0, 0)

	ref := engine.NewReference(bm, false)
	c := engine.NewStaticConstraint("c", []engine.Variable{0}, []bound.CaseSplit{
		{Bounds: []bound.Bound{{Variable: 0, Value: 1, Kind: bound.Lower}}},  // x >= 1
		{Bounds: []bound.Bound{{Variable: 0, Value: -1, Kind: bound.Upper}}}, // x <= -1
	})
	ref.AddConstraint(c)

	st := NewStack(bm, ref, nil, nil, 1, 1)
	st.ReportViolatedConstraint(c)
	st.PerformSplit()
	if bm.ConsistentBounds() {
		t.Fatal("expected the first case to be infeasible")
	}

	if st.PopSplit() {
		t.Fatal("expected PopSplit to fail over to the second case and still find it infeasible")
	}
	if st.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0 once every alternative is exhausted", st.Depth())
	}
}

// TestPerformSplitOnInactiveCandidateIsNoOp is spec.md §8's boundary
// behavior: performSplit with an inactive candidate clears state without
// touching the bound manager.
func TestPerformSplitOnInactiveCandidateIsNoOp(t *testing.T) {
	bm := bound.NewManager()
	bm.Initialize(1)
	ref := engine.NewReference(bm, false)
	c := twoCaseConstraint()
	c.SetActive(false)
	ref.AddConstraint(c)

	st := NewStack(bm, ref, nil, nil, 1, 1)
	st.needsSplit = true
	st.candidate = c

	st.PerformSplit()
	if st.NeedToSplit() {
		t.Fatal("expected NeedToSplit to clear")
	}
	if st.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0: no frame should have been created", st.Depth())
	}
	if bm.Level() != 0 {
		t.Fatalf("bound manager level = %d, want 0: no context should have been pushed", bm.Level())
	}
}

// TestPerformSplitRejectsEquationCases is the Open Question decision of
// DESIGN.md: a case carrying equations triggers a PreconditionViolation.
func TestPerformSplitRejectsEquationCases(t *testing.T) {
	bm := bound.NewManager()
	bm.Initialize(1)
	ref := engine.NewReference(bm, false)
	c := engine.NewStaticConstraint("c", []engine.Variable{0}, []bound.CaseSplit{
		{Equations: []bound.Equation{{RHS: 1}}},
		{Bounds: []bound.Bound{{Variable: 0, Value: 0, Kind: bound.Upper}}},
	})
	ref.AddConstraint(c)

	st := NewStack(bm, ref, nil, nil, 1, 1)
	st.needsSplit = true
	st.candidate = c

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a case split carrying equations")
		}
	}()
	st.PerformSplit()
}

// TestSplitWithCertificateTreeTracksCurrentNode exercises the proof-mode
// path: performSplit must create one child per case and point the tree's
// current node at the applied one.
func TestSplitWithCertificateTreeTracksCurrentNode(t *testing.T) {
	bm := bound.NewManager()
	bm.Initialize(1)
	bm.SetLowerBound(0, -5)
	bm.SetUpperBound(0, -1)

	ref := engine.NewReference(bm, true)
	tree := ref.Tree()
	c := twoCaseConstraint()
	ref.AddConstraint(c)

	st := NewStack(bm, ref, tree, nil, 1, 1)
	st.ReportViolatedConstraint(c)
	st.PerformSplit()

	// GetChildBySplit searches the current node's children, and PerformSplit
	// has already moved Current to the applied child, so look the child up
	// from the root.
	wantID := tree.Current()
	tree.SetCurrent(tree.Root())
	firstCase := bound.CaseSplit{Bounds: []bound.Bound{{Variable: 0, Value: 0, Kind: bound.Lower}}}
	gotID, ok := tree.GetChildBySplit(firstCase)
	if !ok {
		t.Fatal("expected a child for the first case")
	}
	if gotID != wantID {
		t.Fatal("expected the tree's current node to be the first case's child")
	}
	tree.SetCurrent(wantID)
	if ref.CurrentCertificateNode() != wantID {
		t.Fatal("expected the facade's certificate pointer to be in sync")
	}

	var _ certificate.NodeID = wantID
}
