package stats

import "time"

// Noop implements Sink by discarding every event; its Snapshot is always
// empty. Useful for callers that don't want the cost of metrics collection.
type Noop struct{}

func (Noop) IncTightenings(TighteningSource)        {}
func (Noop) IncSplits()                             {}
func (Noop) IncPops()                               {}
func (Noop) ObserveDecisionLevel(int)                {}
func (Noop) IncContextPushes()                      {}
func (Noop) IncContextPops()                        {}
func (Noop) ObserveCoreDuration(time.Duration)      {}
func (Noop) ObservePushPopDuration(string, time.Duration) {}
func (Noop) Snapshot() map[string]float64           { return map[string]float64{} }
