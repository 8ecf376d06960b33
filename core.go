// Package plverify wires BoundManager, RowTightener and DecisionStack
// together into the search loop of spec.md §2: tighten to saturation, ask
// the decision stack whether a split is due, split or pop, repeat until the
// engine reports no violations (SAT) or the decision stack empties (UNSAT).
//
// The engine façade itself (pivoting the simplex, reporting which
// piecewise-linear constraints are currently violated) is explicitly out of
// this core's implementation budget per spec.md §1 — Core drives that work
// through a caller-supplied Stepper rather than owning it, the same way
// teacher's Solver.Solve drives its own search() against a Problem it was
// handed rather than parsing one itself.
package plverify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crillab/plverify/bound"
	"github.com/crillab/plverify/certificate"
	"github.com/crillab/plverify/config"
	"github.com/crillab/plverify/decision"
	"github.com/crillab/plverify/engine"
	"github.com/crillab/plverify/stats"
	"github.com/crillab/plverify/tighten"
)

// Result is spec.md §7's user-visible outcome: the core only ever produces
// the first two.
type Result int

const (
	Unsat Result = iota
	Sat
)

func (r Result) String() string {
	if r == Sat {
		return "sat"
	}
	return "unsat"
}

// Stepper is the engine façade's pivoting step, reduced to exactly what
// Core's loop needs each round: pivot the simplex (or otherwise settle the
// tableau) and report which piecewise-linear constraints are currently
// violated. A nil slice with a true ok means the engine found no violation
// and the current assignment is a genuine solution.
type Stepper interface {
	Step() (violated []engine.Constraint, ok bool)
}

// PhasePatternStepper is an optional Stepper capability: a local-search-
// driven engine that proposes phase patterns and sometimes rejects its own
// proposal, feeding DecisionStack.ReportRejectedPhasePatternProposal
// (spec.md §4.D, SPEC_FULL.md §9's USE_DEEPSOI_LOCAL_SEARCH). Core checks
// for it via a type assertion so a Stepper that never rejects proposals
// doesn't need to implement it.
type PhasePatternStepper interface {
	PhasePatternRejected() bool
}

// Core is spec.md §2's orchestration loop.
type Core struct {
	bounds    *bound.Manager
	tightener *tighten.Tightener
	stack     *decision.Stack
	cfg       config.Config
	stats     stats.Sink
	log       *logrus.Logger
	tracer    trace.Tracer

	rows   []bound.SparseRow
	oracle tighten.Oracle
}

// New builds a Core. tree and oracle may be nil (proof production disabled,
// constraint-matrix-only tightening respectively). log may be nil to use
// logrus's standard logger; sink may be nil to fall back to stats.Noop.
func New(cfg config.Config, bounds *bound.Manager, facade engine.Facade, tree *certificate.Tree, rows []bound.SparseRow, oracle tighten.Oracle, sink stats.Sink, log *logrus.Logger) *Core {
	if sink == nil {
		sink = stats.Noop{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	var heuristic engine.Heuristic
	switch cfg.BranchingStrategy {
	case config.BranchScoreTracker:
		heuristic = decision.NewScoreTracker(1)
	default:
		heuristic = decision.NewLeastFix()
	}

	return &Core{
		bounds:    bounds,
		tightener: tighten.New(cfg.ToTightenOptions()),
		stack:     decision.NewStack(bounds, facade, tree, heuristic, cfg.ConstraintViolationThreshold, cfg.DeepSoiRejectionThreshold),
		cfg:       cfg,
		stats:     sink,
		log:       log,
		tracer:    otel.Tracer("github.com/crillab/plverify"),
		rows:      rows,
		oracle:    oracle,
	}
}

// Run drives the search loop of spec.md §2 against step until it reports SAT
// or the decision stack empties, or ctx is cancelled.
func (c *Core) Run(ctx context.Context, step Stepper) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "plverify.Core.Run")
	defer span.End()

	start := time.Now()
	defer func() { c.stats.ObserveCoreDuration(time.Since(start)) }()

	for {
		if err := ctx.Err(); err != nil {
			return Unsat, err
		}

		if err := c.tightenRound(ctx); err != nil {
			if !c.backtrackFrom(ctx, err) {
				return Unsat, nil
			}
			continue
		}

		violated, ok := step.Step()
		if !ok {
			if !c.backtrackFrom(ctx, engine.NewInfeasibleQueryNoVariable("engine reported an inconsistent tableau")) {
				return Unsat, nil
			}
			continue
		}
		if len(violated) == 0 {
			return Sat, nil
		}

		for _, v := range violated {
			c.stack.ReportViolatedConstraint(v)
		}
		if pp, ok := step.(PhasePatternStepper); ok && pp.PhasePatternRejected() {
			c.stack.ReportRejectedPhasePatternProposal()
		}
		if c.stack.NeedToSplit() {
			c.performSplit(ctx)
		}
	}
}

func (c *Core) tightenRound(ctx context.Context) error {
	_, span := c.tracer.Start(ctx, "plverify.Core.tighten")
	defer span.End()

	rounds, err := c.tightener.Saturate(c.bounds, c.rows, c.oracle)
	for _, t := range c.bounds.DrainTightenings() {
		c.stats.IncTightenings(tighteningSource(t.Cause))
		c.log.WithFields(logrus.Fields{
			"variable": t.Bound.Variable,
			"value":    t.Bound.Value,
			"kind":     t.Bound.Kind,
			"cause":    t.Cause,
		}).Debug("bound tightened")
	}
	if rounds == c.cfg.RowBoundTightenerSaturationIterations {
		c.log.Warn("row tightener hit its saturation-iteration cap before converging")
	}
	return err
}

func tighteningSource(cause bound.Cause) stats.TighteningSource {
	switch cause {
	case bound.CauseInvertedBasis:
		return stats.SourceExplicitBasis
	case bound.CauseConstraintMatrix:
		return stats.SourceConstraintMatrix
	default:
		return stats.SourceRow
	}
}

// performSplit applies the decision stack's pending candidate, instrumenting
// it with the same split/pop counters and span attributes spec.md §6 and
// SPEC_FULL.md §6 name.
func (c *Core) performSplit(ctx context.Context) {
	_, span := c.tracer.Start(ctx, "plverify.Core.performSplit")
	defer span.End()

	start := time.Now()
	c.stack.PerformSplit()
	c.stats.ObservePushPopDuration("push", time.Since(start))
	c.stats.IncSplits()
	c.stats.ObserveDecisionLevel(c.stack.Depth())
	c.stats.IncContextPushes()
	span.SetAttributes(attribute.Int("decision_level", c.stack.Depth()))
	c.log.WithField("level", c.stack.Depth()).Debug("split")
}

// backtrackFrom reacts to an InfeasibleQueryError (or an equivalent
// inconsistency reported by the stepper) by popping to the next untried
// alternative. It returns false once the stack empties (UNSAT).
func (c *Core) backtrackFrom(ctx context.Context, reason error) bool {
	_, span := c.tracer.Start(ctx, "plverify.Core.popSplit")
	defer span.End()

	c.log.WithError(reason).Debug("infeasible, backtracking")
	start := time.Now()
	ok := c.stack.PopSplit()
	c.stats.ObservePushPopDuration("pop", time.Since(start))
	c.stats.IncPops()
	c.stats.IncContextPops()
	c.stats.ObserveDecisionLevel(c.stack.Depth())
	span.SetAttributes(attribute.Int("decision_level", c.stack.Depth()), attribute.Bool("found_alternative", ok))
	return ok
}
