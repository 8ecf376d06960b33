package plverify

import (
	"context"
	"testing"

	"github.com/crillab/plverify/bound"
	"github.com/crillab/plverify/config"
	"github.com/crillab/plverify/engine"
)

func twoCaseConstraint(id string, v engine.Variable) *engine.StaticConstraint {
	return engine.NewStaticConstraint(id, []engine.Variable{v}, []bound.CaseSplit{
		{Bounds: []bound.Bound{{Variable: v, Value: 0, Kind: bound.Lower}}}, // v >= 0
		{Bounds: []bound.Bound{{Variable: v, Value: 0, Kind: bound.Upper}}}, // v <= 0
	})
}

// fixedStepper reports the constraints in violated on its first N calls and
// no violation afterward, simulating an engine that resolves once the
// decision stack has committed to the right case.
type fixedStepper struct {
	violated  []engine.Constraint
	satAfter  int
	callCount int
}

func (f *fixedStepper) Step() ([]engine.Constraint, bool) {
	f.callCount++
	if f.callCount <= f.satAfter {
		return f.violated, true
	}
	return nil, true
}

// TestRunFindsSatAfterOneSplit exercises the full loop: a single violated
// constraint forces one split; once applied, the stepper reports no further
// violation and Run returns Sat.
func TestRunFindsSatAfterOneSplit(t *testing.T) {
	bm := bound.NewManager()
	bm.Initialize(1)
	bm.SetLowerBound(0, -5)
	bm.SetUpperBound(0, 5)

	ref := engine.NewReference(bm, false)
	c := twoCaseConstraint("x-sign", 0)
	ref.AddConstraint(c)

	cfg := config.Default()
	cfg.ConstraintViolationThreshold = 1
	core := New(cfg, bm, ref, nil, nil, nil, nil, nil)

	step := &fixedStepper{violated: []engine.Constraint{c}, satAfter: 1}
	result, err := core.Run(context.Background(), step)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != Sat {
		t.Fatalf("result = %v, want sat", result)
	}
	if core.stack.Depth() != 1 {
		t.Fatalf("depth = %d, want 1 (one committed split)", core.stack.Depth())
	}
}

// alwaysViolatedStepper reports the same unsatisfiable constraint every
// round, forcing Run to exhaust every alternative and report Unsat.
type alwaysViolatedStepper struct {
	c engine.Constraint
}

func (a *alwaysViolatedStepper) Step() ([]engine.Constraint, bool) {
	return []engine.Constraint{a.c}, true
}

// TestRunReturnsUnsatWhenBothCasesInfeasible drives a constraint whose both
// cases are infeasible against the variable's fixed bounds; Run must exhaust
// the stack and return Unsat rather than looping forever.
func TestRunReturnsUnsatWhenBothCasesInfeasible(t *testing.T) {
	bm := bound.NewManager()
	bm.Initialize(1)
	bm.SetLowerBound(0, 0)
	bm.SetUpperBound(0, 0)

	ref := engine.NewReference(bm, false)
	c := engine.NewStaticConstraint("c", []engine.Variable{0}, []bound.CaseSplit{
		{Bounds: []bound.Bound{{Variable: 0, Value: 1, Kind: bound.Lower}}},
		{Bounds: []bound.Bound{{Variable: 0, Value: -1, Kind: bound.Upper}}},
	})
	ref.AddConstraint(c)

	cfg := config.Default()
	cfg.ConstraintViolationThreshold = 1
	core := New(cfg, bm, ref, nil, nil, nil, nil, nil)

	result, err := core.Run(context.Background(), &alwaysViolatedStepper{c: c})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != Unsat {
		t.Fatalf("result = %v, want unsat", result)
	}
}

// TestRunRespectsCancellation ensures a cancelled context stops the loop
// instead of spinning.
func TestRunRespectsCancellation(t *testing.T) {
	bm := bound.NewManager()
	bm.Initialize(1)
	ref := engine.NewReference(bm, false)
	core := New(config.Default(), bm, ref, nil, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := core.Run(ctx, &fixedStepper{satAfter: 0}); err == nil {
		t.Fatal("expected an error from a pre-cancelled context")
	}
}
