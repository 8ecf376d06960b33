// Command plcore is a minimal demonstration binary for plverify.Core. It
// owns no parser (spec.md §1 Non-goals exclude input formats from this
// core's budget): it builds a small synthetic system with one piecewise-
// linear constraint and drives it through Core.Run, printing "sat"/"unsat"
// the way teacher's own main.go prints its DIMACS solver's verdict.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crillab/plverify"
	"github.com/crillab/plverify/bound"
	"github.com/crillab/plverify/config"
	"github.com/crillab/plverify/engine"
	"github.com/crillab/plverify/stats"
)

func main() {
	var (
		verbose    bool
		configPath string
	)
	flag.BoolVar(&verbose, "verbose", false, "sets verbose mode on")
	flag.StringVar(&configPath, "config", "", "optional config file of plverify knobs")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load config %q: %v\n", configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log := logrus.StandardLogger()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	sink := stats.NewPrometheus(prometheus.NewRegistry())
	result, err := solveDemo(cfg, sink, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result)
	if verbose {
		for name, value := range sink.Snapshot() {
			fmt.Printf("c %s: %g\n", name, value)
		}
	}
	if result == plverify.Unsat {
		os.Exit(1)
	}
}

// demoStepper evaluates the single demo constraint's violation by checking
// whether x's interval still straddles 0, and reports feasibility by
// deferring entirely to the bound manager's own consistency flag.
type demoStepper struct {
	bounds *bound.Manager
	c      engine.Constraint
	x      bound.Variable
}

func (d *demoStepper) Step() ([]engine.Constraint, bool) {
	if !d.bounds.ConsistentBounds() {
		return nil, false
	}
	if d.c.IsActive() && d.bounds.LowerBound(d.x) <= 0 && d.bounds.UpperBound(d.x) >= 0 {
		return []engine.Constraint{d.c}, true
	}
	return nil, true
}

// solveDemo builds x in [-5, 5] constrained by a single abs-value-style
// piecewise-linear split (x >= 0 or x <= 0) and drives it to a verdict.
func solveDemo(cfg config.Config, sink stats.Sink, log *logrus.Logger) (plverify.Result, error) {
	bm := bound.NewManager()
	bm.Initialize(1)
	bm.SetLowerBound(0, -5)
	bm.SetUpperBound(0, 5)

	ref := engine.NewReference(bm, cfg.ProduceProofs)
	c := engine.NewStaticConstraint("x-sign", []engine.Variable{0}, []bound.CaseSplit{
		{Bounds: []bound.Bound{{Variable: 0, Value: 0, Kind: bound.Lower}}},
		{Bounds: []bound.Bound{{Variable: 0, Value: 0, Kind: bound.Upper}}},
	})
	ref.AddConstraint(c)

	core := plverify.New(cfg, bm, ref, ref.Tree(), nil, nil, sink, log)
	return core.Run(context.Background(), &demoStepper{bounds: bm, c: c, x: 0})
}
