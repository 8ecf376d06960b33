// Package engine defines the contract spec.md §4.F calls the Engine façade:
// the interface the decision stack and the row tightener require from
// whatever owns the simplex tableau and the piecewise-linear constraint
// pool. Per spec.md §1 this façade is "a collaborator interface, not part of
// this spec's implementation budget" — the real engine (parsing, pivoting,
// result formatting) lives outside this module. Reference provides a small
// in-memory implementation so this module's own tests and its demonstration
// binary have something to drive against.
package engine

import (
	"github.com/crillab/plverify/bound"
	"github.com/crillab/plverify/certificate"
)

// Variable is bound.Variable under the name spec.md uses for it at the
// engine/constraint boundary.
type Variable = bound.Variable

// Constraint is spec.md §3's "Piecewise-Linear Constraint": a polymorphic
// object over a small capability set.
type Constraint interface {
	// IsActive reports whether the constraint still participates in
	// violation reporting. A constraint that has been split on is inactive.
	IsActive() bool
	// SetActive flips the constraint's active flag.
	SetActive(active bool)
	// CaseSplits returns the ordered list (length >= 2) of alternative
	// bound-tightening sets this constraint decomposes into.
	CaseSplits() []bound.CaseSplit
	// Participates reports whether v appears in this constraint.
	Participates(v Variable) bool
	// Identity is a stable label used for statistics, logging and the
	// least-fix heuristic's violation bookkeeping. It need not be unique
	// across constraint types, only within one DecisionStack's pool.
	Identity() string
}

// Heuristic picks one constraint to branch on next, out of candidates. Both
// decision.LeastFix and decision.ScoreTracker implement it.
type Heuristic interface {
	Pick(candidates []Constraint) Constraint
}

// Snapshot is an opaque handle returned by Facade.StoreState and consumed by
// Facade.RestoreState. Its content is entirely up to the Facade
// implementation: spec.md requires only that it be "sufficient to restore
// the tableau and bounds to their values at the moment of capture" — which,
// in bounds-only mode, can be as little as a bound.LocalBounds.
type Snapshot interface{}

// Facade is the contract spec.md §4.F requires of the engine that owns the
// simplex tableau and the constraint pool.
type Facade interface {
	// ApplySplit applies every bound tightening (and, if any — though the
	// decision stack never passes one with equations — equation) in split.
	// It returns an error only for a malformed split; infeasibility caused
	// by applying a perfectly well-formed split is reported via
	// ConsistentBounds, not a returned error (spec.md §7: infeasibility
	// propagates via the bound manager's flag, not exceptions inside
	// ApplySplit itself).
	ApplySplit(split bound.CaseSplit) error
	// StoreState captures a Snapshot sufficient to undo everything done
	// since the matching context level was entered. level is the context
	// level the decision stack is about to push past.
	StoreState(level int) Snapshot
	// RestoreState undoes back to a previously captured Snapshot.
	RestoreState(snap Snapshot)
	// ConsistentBounds reports whether the bound manager backing this
	// facade is currently free of the infeasibility flag.
	ConsistentBounds() bool
	// PreContextPushHook runs immediately before a new context level opens.
	PreContextPushHook()
	// PostContextPopHook runs immediately after a context level closes.
	PostContextPopHook()
	// PickSplitPLConstraint asks the facade's own notion of "currently
	// violated constraints" to nominate one, using h to break ties. Used by
	// DecisionStack.ReportRejectedPhasePatternProposal's local-search
	// fallback path (spec.md §4.D).
	PickSplitPLConstraint(h Heuristic) Constraint
	// ApplyAllBoundTightenings asks the facade to run its row tightener to
	// saturation before a new candidate is chosen.
	ApplyAllBoundTightenings()
	// ApplyAllValidConstraintCaseSplits asks the facade to apply every case
	// split it can currently prove unconditionally valid.
	ApplyAllValidConstraintCaseSplits()
	// ShouldProduceProofs reports whether the certificate tree is active.
	ShouldProduceProofs() bool
	// ExplainSimplexFailure returns the explanation vector for the bound
	// that made the tableau infeasible, used in proof mode before popping.
	ExplainSimplexFailure() bound.Explanation
	// CurrentCertificateNode and SetCurrentCertificateNode are the
	// "certificate-pointer accessors" spec.md §4.F lists; DecisionStack
	// uses them to keep the certificate tree's current node in lockstep
	// with the topmost decision frame's active case.
	CurrentCertificateNode() certificate.NodeID
	SetCurrentCertificateNode(id certificate.NodeID)
}
