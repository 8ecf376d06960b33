// Package stats implements spec.md §6's statistics interface: counters for
// tightenings, splits, pops, decision-level watermarks, and context
// pushes/pops, plus histograms for time spent in the core and in individual
// pushes/pops.
package stats

import "time"

// TighteningSource distinguishes which pass of tighten.Tightener produced a
// bound, spec.md §6's "number of tightenings from explicit basis / from
// constraint matrix / from rows" and SPEC_FULL.md §9's supplemented
// per-tightening cause tag.
type TighteningSource string

const (
	SourceExplicitBasis    TighteningSource = "explicit_basis"
	SourceConstraintMatrix TighteningSource = "constraint_matrix"
	SourceRow              TighteningSource = "row"
)

// Sink is spec.md §6's statistics interface. plverify.Core holds exactly one
// and calls into it on every tightening, split, pop, and context transition;
// Core never reads values back. Snapshot is the one read-back method, for
// callers such as cmd/plcore that print a summary.
type Sink interface {
	IncTightenings(source TighteningSource)
	IncSplits()
	IncPops()
	ObserveDecisionLevel(level int)
	IncContextPushes()
	IncContextPops()
	ObserveCoreDuration(d time.Duration)
	ObservePushPopDuration(op string, d time.Duration)

	// Snapshot returns every counter/gauge's current value by name, for a
	// caller that wants to print or log a summary (SPEC_FULL.md §9's
	// supplemented statistics-snapshotting feature).
	Snapshot() map[string]float64
}
