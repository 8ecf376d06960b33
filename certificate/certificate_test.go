package certificate

import (
	"testing"

	"github.com/crillab/plverify/bound"
)

func split(v bound.Variable, val float64, kind bound.Kind) bound.CaseSplit {
	return bound.CaseSplit{Bounds: []bound.Bound{{Variable: v, Value: val, Kind: kind}}}
}

func TestAddChildAndNavigate(t *testing.T) {
	tree := NewTree()
	root := tree.Root()

	caseA := split(0, 0, bound.Lower)
	caseB := split(0, 0, bound.Upper)

	childA := tree.AddChild(caseA)
	childB := tree.AddChild(caseB)

	if got, ok := tree.GetChildBySplit(caseA); !ok || got != childA {
		t.Fatalf("GetChildBySplit(caseA) = %v, %v; want %v, true", got, ok, childA)
	}

	tree.SetCurrent(childB)
	if tree.Current() != childB {
		t.Fatal("SetCurrent did not move current pointer")
	}
	parent, ok := tree.GetParent()
	if !ok || parent != root {
		t.Fatalf("GetParent() = %v, %v; want %v, true", parent, ok, root)
	}
	gotSplit, ok := tree.GetSplit()
	if !ok || !gotSplit.Equal(caseB) {
		t.Fatalf("GetSplit() = %v, want %v", gotSplit, caseB)
	}
}

func TestPathFromRoot(t *testing.T) {
	tree := NewTree()
	caseA := split(0, 1, bound.Lower)
	caseB := split(1, 2, bound.Upper)

	a := tree.AddChild(caseA)
	tree.SetCurrent(a)
	b := tree.AddChild(caseB)
	tree.SetCurrent(b)

	path := tree.PathFromRoot()
	if len(path) != 2 || !path[0].Equal(caseA) || !path[1].Equal(caseB) {
		t.Fatalf("PathFromRoot() = %v", path)
	}
}

func TestSetCurrentOnUnknownNodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	tree := NewTree()
	tree.SetCurrent(NodeID{0xFF})
}
