package engine

import (
	"fmt"

	"github.com/crillab/plverify/bound"
	"github.com/crillab/plverify/certificate"
)

// Reference is a minimal in-memory Facade implementation. It is not a
// simplex engine — it has no tableau, no pivoting, no row extraction — it
// only owns a bound.Manager and a constraint pool, which is enough for
// DecisionStack and this module's own tests to exercise every operation
// spec.md §4.F requires of a facade. Production callers are expected to
// supply their own Facade backed by a real simplex implementation (spec.md
// §1 Non-goals).
type Reference struct {
	Bounds        *bound.Manager
	constraints   []Constraint
	produceProofs bool
	tree          *certificate.Tree
	currentNode   certificate.NodeID
	failure       bound.Explanation
}

// NewReference returns a Reference backed by bm. If produceProofs is true, a
// certificate.Tree is created and CurrentCertificateNode starts at its root.
func NewReference(bm *bound.Manager, produceProofs bool) *Reference {
	r := &Reference{Bounds: bm, produceProofs: produceProofs}
	if produceProofs {
		r.tree = certificate.NewTree()
		r.currentNode = r.tree.Root()
	}
	return r
}

// AddConstraint registers c in the facade's constraint pool.
func (r *Reference) AddConstraint(c Constraint) {
	r.constraints = append(r.constraints, c)
}

// Constraints returns every registered constraint, in registration order.
func (r *Reference) Constraints() []Constraint {
	return r.constraints
}

// Tree returns the backing certificate tree, or nil if proofs are disabled.
func (r *Reference) Tree() *certificate.Tree {
	return r.tree
}

// SetExplainSimplexFailure installs the explanation ExplainSimplexFailure
// will return next; tests use it to simulate a proof-producing facade.
func (r *Reference) SetExplainSimplexFailure(exp bound.Explanation) {
	r.failure = exp
}

// ApplySplit applies every bound in split directly to the bound manager.
// Equations are rejected: Reference is a bounds-only facade.
func (r *Reference) ApplySplit(split bound.CaseSplit) error {
	if len(split.Equations) > 0 {
		return fmt.Errorf("engine: reference facade cannot apply equations")
	}
	for _, b := range split.Bounds {
		if b.Kind == bound.Lower {
			r.Bounds.SetLowerBound(b.Variable, b.Value)
		} else {
			r.Bounds.SetUpperBound(b.Variable, b.Value)
		}
	}
	return nil
}

// StoreState returns a bound.LocalBounds snapshot.
func (r *Reference) StoreState(level int) Snapshot {
	return r.Bounds.StoreLocalBounds()
}

// RestoreState restores a snapshot produced by StoreState.
func (r *Reference) RestoreState(snap Snapshot) {
	r.Bounds.RestoreLocalBounds(snap.(bound.LocalBounds))
}

// ConsistentBounds delegates to the bound manager.
func (r *Reference) ConsistentBounds() bool {
	return r.Bounds.ConsistentBounds()
}

// PreContextPushHook is a no-op: Reference has no tableau to prepare.
func (r *Reference) PreContextPushHook() {}

// PostContextPopHook is a no-op for the same reason.
func (r *Reference) PostContextPopHook() {}

// PickSplitPLConstraint asks h to choose among the currently active (i.e.
// not yet split on) constraints.
func (r *Reference) PickSplitPLConstraint(h Heuristic) Constraint {
	var active []Constraint
	for _, c := range r.constraints {
		if c.IsActive() {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return h.Pick(active)
}

// ApplyAllBoundTightenings is a no-op: Reference has no row tightener of its
// own. Callers that want row-based tightening drive tighten.Tightener
// themselves against r.Bounds.
func (r *Reference) ApplyAllBoundTightenings() {}

// ApplyAllValidConstraintCaseSplits is a no-op for the same reason.
func (r *Reference) ApplyAllValidConstraintCaseSplits() {}

// ShouldProduceProofs reports whether this Reference was built with
// produceProofs.
func (r *Reference) ShouldProduceProofs() bool {
	return r.produceProofs
}

// ExplainSimplexFailure returns whatever was last installed by
// SetExplainSimplexFailure.
func (r *Reference) ExplainSimplexFailure() bound.Explanation {
	return r.failure
}

// CurrentCertificateNode returns the facade's certificate cursor.
func (r *Reference) CurrentCertificateNode() certificate.NodeID {
	return r.currentNode
}

// SetCurrentCertificateNode moves the facade's certificate cursor.
func (r *Reference) SetCurrentCertificateNode(id certificate.NodeID) {
	r.currentNode = id
	if r.tree != nil {
		r.tree.SetCurrent(id)
	}
}
