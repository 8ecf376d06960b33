package stats

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNoopDiscardsEverything(t *testing.T) {
	var n Noop
	n.IncTightenings(SourceRow)
	n.IncSplits()
	n.IncPops()
	n.ObserveDecisionLevel(3)
	n.IncContextPushes()
	n.IncContextPops()
	n.ObserveCoreDuration(time.Second)
	n.ObservePushPopDuration("push", time.Millisecond)
	if snap := n.Snapshot(); len(snap) != 0 {
		t.Fatalf("Snapshot() = %v, want empty", snap)
	}
}

func TestPrometheusCountsAndSnapshots(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())
	p.IncTightenings(SourceConstraintMatrix)
	p.IncTightenings(SourceConstraintMatrix)
	p.IncTightenings(SourceExplicitBasis)
	p.IncSplits()
	p.IncSplits()
	p.IncPops()
	p.ObserveDecisionLevel(1)
	p.ObserveDecisionLevel(3)
	p.ObserveDecisionLevel(2)
	p.IncContextPushes()
	p.IncContextPops()

	snap := p.Snapshot()
	if snap["splits_total"] != 2 {
		t.Fatalf("splits_total = %g, want 2", snap["splits_total"])
	}
	if snap["pops_total"] != 1 {
		t.Fatalf("pops_total = %g, want 1", snap["pops_total"])
	}
	if snap["decision_level"] != 2 {
		t.Fatalf("decision_level = %g, want 2 (most recent observation)", snap["decision_level"])
	}
	if snap["max_decision_level"] != 3 {
		t.Fatalf("max_decision_level = %g, want 3 (watermark)", snap["max_decision_level"])
	}
	if snap["context_pushes_total"] != 1 || snap["context_pops_total"] != 1 {
		t.Fatalf("context push/pop totals = %g/%g, want 1/1", snap["context_pushes_total"], snap["context_pops_total"])
	}
	if snap["tightenings_total{source=constraint_matrix}"] != 2 {
		t.Fatalf("constraint_matrix tightenings = %g, want 2", snap["tightenings_total{source=constraint_matrix}"])
	}
	if snap["tightenings_total{source=explicit_basis}"] != 1 {
		t.Fatalf("explicit_basis tightenings = %g, want 1", snap["tightenings_total{source=explicit_basis}"])
	}
}
