package stats

import (
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus is a Sink backed by github.com/prometheus/client_golang,
// grounded on the promauto counter/gauge/histogram wiring in
// jinterlante1206-AleutianLocal's delta-history worker (reference
// material) — adapted here to register against a caller-supplied
// prometheus.Registerer instead of the default global registry, so that
// more than one plverify.Core can run in the same process without a
// duplicate-registration panic.
type Prometheus struct {
	tightenings      *prometheus.CounterVec
	splits           prometheus.Counter
	pops             prometheus.Counter
	decisionLevel    prometheus.Gauge
	maxDecisionLevel prometheus.Gauge
	contextPushes    prometheus.Counter
	contextPops      prometheus.Counter
	coreDuration     prometheus.Histogram
	pushPopDuration  *prometheus.HistogramVec

	mu           sync.Mutex // guards maxLevelSeen
	maxLevelSeen int
}

// NewPrometheus registers every counter/gauge/histogram against reg and
// returns a ready-to-use Prometheus sink. Pass prometheus.NewRegistry() for
// an isolated registry, or prometheus.DefaultRegisterer to expose metrics on
// the process's default /metrics handler.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		tightenings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plverify_tightenings_total",
			Help: "Number of bound tightenings applied, by source pass.",
		}, []string{"source"}),
		splits: factory.NewCounter(prometheus.CounterOpts{
			Name: "plverify_splits_total",
			Help: "Number of case splits performed.",
		}),
		pops: factory.NewCounter(prometheus.CounterOpts{
			Name: "plverify_pops_total",
			Help: "Number of backtracks (pops) performed.",
		}),
		decisionLevel: factory.NewGauge(prometheus.GaugeOpts{
			Name: "plverify_decision_level",
			Help: "Current decision stack depth.",
		}),
		maxDecisionLevel: factory.NewGauge(prometheus.GaugeOpts{
			Name: "plverify_max_decision_level",
			Help: "Maximum decision stack depth reached so far.",
		}),
		contextPushes: factory.NewCounter(prometheus.CounterOpts{
			Name: "plverify_context_pushes_total",
			Help: "Number of bound-manager context pushes.",
		}),
		contextPops: factory.NewCounter(prometheus.CounterOpts{
			Name: "plverify_context_pops_total",
			Help: "Number of bound-manager context pops.",
		}),
		coreDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "plverify_core_duration_seconds",
			Help:    "Total wall-clock time spent in the decision core.",
			Buckets: prometheus.DefBuckets,
		}),
		pushPopDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plverify_push_pop_duration_seconds",
			Help:    "Duration of an individual context push or pop.",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"op"}),
	}
}

func (p *Prometheus) IncTightenings(source TighteningSource) {
	p.tightenings.WithLabelValues(string(source)).Inc()
}

func (p *Prometheus) IncSplits() { p.splits.Inc() }
func (p *Prometheus) IncPops()   { p.pops.Inc() }

func (p *Prometheus) ObserveDecisionLevel(level int) {
	p.decisionLevel.Set(float64(level))
	p.mu.Lock()
	defer p.mu.Unlock()
	if level > p.maxLevelSeen {
		p.maxLevelSeen = level
		p.maxDecisionLevel.Set(float64(level))
	}
}

func (p *Prometheus) IncContextPushes() { p.contextPushes.Inc() }
func (p *Prometheus) IncContextPops()   { p.contextPops.Inc() }

func (p *Prometheus) ObserveCoreDuration(d time.Duration) {
	p.coreDuration.Observe(d.Seconds())
}

func (p *Prometheus) ObservePushPopDuration(op string, d time.Duration) {
	p.pushPopDuration.WithLabelValues(op).Observe(d.Seconds())
}

func readCounter(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func readGauge(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// Snapshot reads back every counter and gauge's current value. Histograms
// are omitted: their distribution doesn't reduce to a single float, and
// spec.md's snapshot is meant for a human-readable progress summary, not a
// full metrics scrape.
func (p *Prometheus) Snapshot() map[string]float64 {
	out := map[string]float64{
		"splits_total":            readCounter(p.splits),
		"pops_total":              readCounter(p.pops),
		"decision_level":          readGauge(p.decisionLevel),
		"max_decision_level":      readGauge(p.maxDecisionLevel),
		"context_pushes_total":    readCounter(p.contextPushes),
		"context_pops_total":      readCounter(p.contextPops),
	}
	for _, source := range []TighteningSource{SourceExplicitBasis, SourceConstraintMatrix, SourceRow} {
		c, err := p.tightenings.GetMetricWithLabelValues(string(source))
		if err != nil {
			continue
		}
		out["tightenings_total{source="+string(source)+"}"] = readCounter(c)
	}
	return out
}
