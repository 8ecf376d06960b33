// Package decision implements spec.md's DecisionStack (the "SmtCore"): the
// ordered stack of case-split frames driving the branch/backtrack loop, its
// branching heuristics, and the violation/rejection counters that decide
// when a split is due.
package decision

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/crillab/plverify/bound"
	"github.com/crillab/plverify/certificate"
	"github.com/crillab/plverify/engine"
)

// Frame is spec.md §4.D's Decision Frame: `{ snapshot, activeCase,
// remainingCases, impliedValidCases }`. remainingCases shrinks monotonically
// as PopSplit advances through it; once empty the frame is exhausted.
type Frame struct {
	snapshot          engine.Snapshot
	activeCase        bound.CaseSplit
	remainingCases    []bound.CaseSplit
	impliedValidCases []bound.CaseSplit
}

// ActiveCase returns the case currently applied at this frame.
func (f *Frame) ActiveCase() bound.CaseSplit { return f.activeCase }

// ImpliedValidCases returns the splits recorded as unconditionally valid
// under this frame's active case.
func (f *Frame) ImpliedValidCases() []bound.CaseSplit { return f.impliedValidCases }

// Exhausted reports whether every alternative case at this frame has been
// tried.
func (f *Frame) Exhausted() bool { return len(f.remainingCases) == 0 }

// Stack is spec.md §4.D's DecisionStack. It owns no tableau of its own: all
// engine state lives behind facade, and all bound state behind bounds — the
// same two collaborators plverify.Core wires together and hands to Stack.
type Stack struct {
	bounds *bound.Manager
	facade engine.Facade
	tree   *certificate.Tree // nil when proof production is disabled

	frames      []*Frame
	rootImplied []bound.CaseSplit

	violationCounts      map[string]int
	violationConstraints map[string]engine.Constraint
	eligible             mapset.Set[string]
	violationThreshold   int

	rejectionCount     int
	rejectionThreshold int

	needsSplit bool
	candidate  engine.Constraint

	heuristic engine.Heuristic
}

// NewStack returns an empty Stack (root level, no frames). tree may be nil
// if proof production is disabled; heuristic may be nil to fall back to
// "first violated constraint" branching.
func NewStack(bounds *bound.Manager, facade engine.Facade, tree *certificate.Tree, heuristic engine.Heuristic, violationThreshold, rejectionThreshold int) *Stack {
	return &Stack{
		bounds:               bounds,
		facade:               facade,
		tree:                 tree,
		heuristic:            heuristic,
		violationThreshold:   violationThreshold,
		rejectionThreshold:   rejectionThreshold,
		violationCounts:      map[string]int{},
		violationConstraints: map[string]engine.Constraint{},
		eligible:             mapset.NewThreadUnsafeSet[string](),
	}
}

// Depth returns the number of open frames, which must equal
// bounds.Level() outside SMT-state-replay mode (spec.md §8 invariant).
func (s *Stack) Depth() int { return len(s.frames) }

// ReportViolatedConstraint increments c's violation counter and, once it
// reaches violationThreshold, sets needs-split and tentatively chooses c as
// the candidate — overridden by the heuristic's own pick among every
// currently-eligible (over-threshold) constraint, if a heuristic is
// configured (spec.md §4.D).
func (s *Stack) ReportViolatedConstraint(c engine.Constraint) {
	id := c.Identity()
	s.violationCounts[id]++
	s.violationConstraints[id] = c
	if obs, ok := s.heuristic.(Observer); ok {
		obs.ObserveViolation(c)
	}
	if s.violationCounts[id] >= s.violationThreshold {
		s.eligible.Add(id)
	}
	if s.needsSplit || s.violationCounts[id] < s.violationThreshold {
		return
	}
	s.needsSplit = true
	s.candidate = c
	if s.heuristic != nil {
		if picked := s.heuristic.Pick(s.eligibleViolators()); picked != nil {
			s.candidate = picked
		}
	}
}

// eligibleViolators returns every constraint whose violation count has ever
// reached violationThreshold, backed by a set so repeated threshold crossings
// don't grow the candidate pool with duplicates.
func (s *Stack) eligibleViolators() []engine.Constraint {
	ids := s.eligible.ToSlice()
	out := make([]engine.Constraint, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.violationConstraints[id])
	}
	return out
}

// ReportRejectedPhasePatternProposal increments a separate rejection
// counter; once it reaches rejectionThreshold, it sets needs-split, invokes
// the engine's own tightening/valid-split hooks, and asks the facade to
// nominate a violated constraint — falling back to the heuristic's score
// tracker's top-unfixed constraint if the facade has none (spec.md §4.D).
func (s *Stack) ReportRejectedPhasePatternProposal() {
	s.rejectionCount++
	if obs, ok := s.heuristic.(Observer); ok {
		obs.ObserveRejection()
	}
	if s.rejectionCount < s.rejectionThreshold {
		return
	}
	s.rejectionCount = 0
	s.needsSplit = true
	s.facade.ApplyAllBoundTightenings()
	s.facade.ApplyAllValidConstraintCaseSplits()
	if s.heuristic == nil {
		return
	}
	if picked := s.facade.PickSplitPLConstraint(s.heuristic); picked != nil {
		s.candidate = picked
		return
	}
	if tracker, ok := s.heuristic.(*ScoreTracker); ok {
		if top := tracker.TopUnfixed(); top != nil {
			s.candidate = top
		}
	}
}

// NeedToSplit reports whether a split is due.
func (s *Stack) NeedToSplit() bool { return s.needsSplit }

func (s *Stack) clearSplitState() {
	s.needsSplit = false
	s.candidate = nil
}

// PerformSplit is spec.md §4.D's performSplit. Precondition: NeedToSplit()
// is true (a candidate is set) — violated otherwise, a PreconditionViolation
// panic. If the candidate has since become inactive (e.g. another frame
// already split on it), it is a no-op that clears state (spec.md §8
// boundary behavior). Otherwise it deactivates the candidate, takes its case
// list, snapshots engine state, opens a new context level, and applies the
// first case.
//
// Per spec.md §9's decision on case splits carrying equations: a candidate
// whose active case list has a non-empty Equations field is rejected with a
// PreconditionViolation, since this core's decision stack assumes a
// bounds-only engine.
func (s *Stack) PerformSplit() {
	if !s.needsSplit || s.candidate == nil {
		engine.Panic("decision: PerformSplit called without a pending candidate")
	}
	c := s.candidate
	if !c.IsActive() {
		s.clearSplitState()
		return
	}
	c.SetActive(false)
	cases := c.CaseSplits()
	if len(cases) < 2 {
		engine.Panic("decision: a piecewise-linear constraint must offer at least two cases")
	}
	for _, cs := range cases {
		if len(cs.Equations) > 0 {
			engine.Panic("decision: PerformSplit does not support case splits carrying equations")
		}
	}

	snap := s.facade.StoreState(s.bounds.Level())
	s.bounds.Push()
	s.facade.PreContextPushHook()

	if s.tree != nil {
		for _, cs := range cases {
			s.tree.AddChild(cs)
		}
	}

	first := cases[0]
	if err := s.facade.ApplySplit(first); err != nil {
		engine.Panic("decision: " + err.Error())
	}
	s.syncCertificateNode(first)

	s.frames = append(s.frames, &Frame{
		snapshot:       snap,
		activeCase:     first,
		remainingCases: cases[1:],
	})
	s.clearSplitState()
}

func (s *Stack) syncCertificateNode(split bound.CaseSplit) {
	if s.tree == nil {
		return
	}
	if id, ok := s.tree.GetChildBySplit(split); ok {
		s.tree.SetCurrent(id)
		s.facade.SetCurrentCertificateNode(id)
	}
}

// PopSplit is spec.md §4.D's popSplit: discard frames whose remainingCases
// is already exhausted, then advance the first non-exhausted frame to its
// next case, repeating while the engine reports inconsistent bounds after
// applying it. Returns false once the stack empties, meaning every
// alternative at every level has been tried (UNSAT).
func (s *Stack) PopSplit() bool {
	for {
		if len(s.frames) == 0 {
			return false
		}
		top := s.frames[len(s.frames)-1]

		if top.Exhausted() {
			s.bounds.Pop()
			s.facade.RestoreState(top.snapshot)
			s.facade.PostContextPopHook()
			s.frames = s.frames[:len(s.frames)-1]
			if s.tree != nil {
				if parent, ok := s.tree.GetParent(); ok {
					s.tree.SetCurrent(parent)
					s.facade.SetCurrentCertificateNode(parent)
				}
			}
			continue
		}

		if s.facade.ShouldProduceProofs() && !s.bounds.ConsistentBounds() {
			exp := s.facade.ExplainSimplexFailure()
			v := s.bounds.InconsistentVariable()
			s.bounds.SetExplanation(exp, v, bound.Lower)
			s.bounds.SetExplanation(exp, v, bound.Upper)
		}
		s.bounds.Pop()
		s.facade.RestoreState(top.snapshot)
		s.facade.PostContextPopHook()
		top.impliedValidCases = nil

		next := top.remainingCases[0]
		top.remainingCases = top.remainingCases[1:]

		s.bounds.Push()
		s.facade.PreContextPushHook()
		if err := s.facade.ApplySplit(next); err != nil {
			engine.Panic("decision: " + err.Error())
		}
		top.activeCase = next
		s.syncCertificateNode(next)

		if s.facade.ConsistentBounds() {
			return true
		}
	}
}

// RecordImpliedValidSplit appends split to the topmost frame's
// impliedValidCases, or to the root-level implied list if the stack is
// currently empty (spec.md §4.D).
func (s *Stack) RecordImpliedValidSplit(split bound.CaseSplit) {
	if len(s.frames) == 0 {
		s.rootImplied = append(s.rootImplied, split)
		return
	}
	top := s.frames[len(s.frames)-1]
	top.impliedValidCases = append(top.impliedValidCases, split)
}

// AllSplitsSoFar returns the full sequence spec.md §4.D and §8 describe:
// root-implied splits, then per frame the active case followed by its own
// implied-valid splits.
func (s *Stack) AllSplitsSoFar() []bound.CaseSplit {
	out := append([]bound.CaseSplit{}, s.rootImplied...)
	for _, f := range s.frames {
		out = append(out, f.activeCase)
		out = append(out, f.impliedValidCases...)
	}
	return out
}

// SmtStackEntry is one serialized decision-path element: the case applied at
// a frame and its implied-valid splits, without a live engine.Snapshot
// handle (spec.md §4.D: storeSmtState/replaySmtStackEntry "requires full
// tableau snapshots, not bounds-only" — a replayed entry re-derives its
// tableau state by re-applying the split, rather than restoring a captured
// one).
type SmtStackEntry struct {
	ActiveCase        bound.CaseSplit
	ImpliedValidCases []bound.CaseSplit
}

// StoreSmtState captures the current decision path as a portable sequence of
// SmtStackEntry, suitable for persisting or shipping to another instance.
func (s *Stack) StoreSmtState() []SmtStackEntry {
	out := make([]SmtStackEntry, len(s.frames))
	for i, f := range s.frames {
		out[i] = SmtStackEntry{
			ActiveCase:        f.activeCase,
			ImpliedValidCases: append([]bound.CaseSplit{}, f.impliedValidCases...),
		}
	}
	return out
}

// ReplaySmtStackEntry re-applies one stored entry on top of the current
// state, pushing a new frame for it. Unlike PerformSplit, it does not
// require a pending candidate or a remaining-cases list — it is meant to be
// called once per entry returned by a prior StoreSmtState, in order.
func (s *Stack) ReplaySmtStackEntry(entry SmtStackEntry) error {
	snap := s.facade.StoreState(s.bounds.Level())
	s.bounds.Push()
	s.facade.PreContextPushHook()
	if err := s.facade.ApplySplit(entry.ActiveCase); err != nil {
		return err
	}
	if s.tree != nil {
		id, ok := s.tree.GetChildBySplit(entry.ActiveCase)
		if !ok {
			id = s.tree.AddChild(entry.ActiveCase)
		}
		s.tree.SetCurrent(id)
		s.facade.SetCurrentCertificateNode(id)
	}
	s.frames = append(s.frames, &Frame{
		snapshot:          snap,
		activeCase:        entry.ActiveCase,
		impliedValidCases: append([]bound.CaseSplit{}, entry.ImpliedValidCases...),
	})
	return nil
}
