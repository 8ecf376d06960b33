package decision

import "github.com/crillab/plverify/engine"

// Observer is implemented by a branching heuristic that wants to be told
// about violation/rejection events as they happen, independently of the
// engine.Heuristic.Pick call that later asks it to choose among candidates.
// LeastFix and ScoreTracker both implement it; Stack consults it via a type
// assertion so a caller-supplied engine.Heuristic that doesn't care about
// these events can simply not implement it.
type Observer interface {
	ObserveViolation(c engine.Constraint)
	ObserveRejection()
}

// LeastFix is spec.md §4.D's default branching heuristic: pick the
// candidate with the fewest historical violations. Counts are keyed by
// Constraint.Identity and never reset, matching "fewest historical
// violations" rather than a windowed count.
type LeastFix struct {
	counts map[string]int
}

// NewLeastFix returns a LeastFix with no observed violations yet.
func NewLeastFix() *LeastFix {
	return &LeastFix{counts: map[string]int{}}
}

// ObserveViolation records one more violation for c.
func (h *LeastFix) ObserveViolation(c engine.Constraint) {
	h.counts[c.Identity()]++
}

// ObserveRejection is a no-op: LeastFix only tracks per-constraint violation
// counts, not rejection events.
func (h *LeastFix) ObserveRejection() {}

// Pick returns the candidate with the fewest recorded violations, breaking
// ties in favor of the earliest candidate in list order (spec.md §8
// scenario 6).
func (h *LeastFix) Pick(candidates []engine.Constraint) engine.Constraint {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	bestCount := h.counts[best.Identity()]
	for _, c := range candidates[1:] {
		if count := h.counts[c.Identity()]; count < bestCount {
			best, bestCount = c, count
		}
	}
	return best
}

// ScoreTracker is spec.md §4.D's alternative, score-driven branching
// heuristic: a pseudo-impact tracker that bumps a constraint's score on
// every observed violation and exposes the globally highest-scored still-
// active constraint via TopUnfixed. The heap shape and percolate logic are
// carried over from a classic activity-ordered priority queue (teacher's
// solver/queue.go), generalized from integer variable indices to string
// constraint identities since a Constraint has no fixed numbering.
type ScoreTracker struct {
	score    map[string]float64
	registry map[string]engine.Constraint
	content  []string
	indices  map[string]int
	bumpBy   float64
}

// NewScoreTracker returns a ScoreTracker that increases a constraint's
// score by bumpBy on every observed violation.
func NewScoreTracker(bumpBy float64) *ScoreTracker {
	return &ScoreTracker{
		score:    map[string]float64{},
		registry: map[string]engine.Constraint{},
		indices:  map[string]int{},
		bumpBy:   bumpBy,
	}
}

func scoreLeft(i int) int   { return i*2 + 1 }
func scoreRight(i int) int  { return (i + 1) * 2 }
func scoreParent(i int) int { return (i - 1) >> 1 }

// less reports whether identity a has strictly higher score than b — the
// comparator is inverted the same way teacher's queue.go inverts activity
// comparison, so the heap's "minimum" is the highest-scored entry.
func (h *ScoreTracker) less(a, b string) bool {
	return h.score[a] > h.score[b]
}

func (h *ScoreTracker) percolateUp(i int) {
	x := h.content[i]
	p := scoreParent(i)
	for i != 0 && h.less(x, h.content[p]) {
		h.content[i] = h.content[p]
		h.indices[h.content[p]] = i
		i = p
		p = scoreParent(p)
	}
	h.content[i] = x
	h.indices[x] = i
}

func (h *ScoreTracker) percolateDown(i int) {
	x := h.content[i]
	for scoreLeft(i) < len(h.content) {
		child := scoreLeft(i)
		if r := scoreRight(i); r < len(h.content) && h.less(h.content[r], h.content[child]) {
			child = r
		}
		if !h.less(h.content[child], x) {
			break
		}
		h.content[i] = h.content[child]
		h.indices[h.content[i]] = i
		i = child
	}
	h.content[i] = x
	h.indices[x] = i
}

func (h *ScoreTracker) removeMin() {
	x := h.content[0]
	h.content[0] = h.content[len(h.content)-1]
	h.indices[h.content[0]] = 0
	delete(h.indices, x)
	h.content = h.content[:len(h.content)-1]
	if len(h.content) > 1 {
		h.percolateDown(0)
	}
}

func (h *ScoreTracker) ensure(identity string) {
	if _, ok := h.indices[identity]; ok {
		return
	}
	h.indices[identity] = len(h.content)
	h.content = append(h.content, identity)
	h.percolateUp(h.indices[identity])
}

// ObserveViolation registers c (if new) and bumps its score.
func (h *ScoreTracker) ObserveViolation(c engine.Constraint) {
	id := c.Identity()
	h.registry[id] = c
	h.ensure(id)
	h.score[id] += h.bumpBy
	h.percolateUp(h.indices[id])
}

// ObserveRejection is a no-op: a rejected phase-pattern proposal isn't
// attributed to any single constraint, so it cannot bump a specific score.
func (h *ScoreTracker) ObserveRejection() {}

// Pick returns the highest-scored candidate among candidates, independent of
// the tracker's own heap (used when the caller already has a restricted
// pool, e.g. the set of constraints currently over the violation threshold).
func (h *ScoreTracker) Pick(candidates []engine.Constraint) engine.Constraint {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	bestScore := h.score[best.Identity()]
	for _, c := range candidates[1:] {
		if s := h.score[c.Identity()]; s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// TopUnfixed returns the highest-scored constraint the tracker has ever
// observed that is still active, popping and discarding any stale (now
// inactive, i.e. already split on) entries it finds ahead of it in the heap.
// It returns nil once every observed constraint has been fixed.
func (h *ScoreTracker) TopUnfixed() engine.Constraint {
	for len(h.content) > 0 {
		id := h.content[0]
		c := h.registry[id]
		if c != nil && c.IsActive() {
			return c
		}
		h.removeMin()
	}
	return nil
}
