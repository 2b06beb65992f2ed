// Package noise implements the adaptive noise-factor feedback loop described
// in §4.2. It is deliberately tiny and last-writer-wins (§5): callers do not
// take a lock across a read-modify-write, matching "writes are last-writer-
// wins and deliberately not locked" from the concurrency model.
package noise

import (
	"math"
	"sync/atomic"
)

const (
	// ThreshHigh/ThreshLow are the variance thresholds from §4.2.
	ThreshHigh = 1.5
	ThreshLow  = 0.5

	minFactor = 0.1
	maxFactor = 2.0
)

// Controller holds the single global adaptive scalar. Stored as bits behind
// an atomic so concurrent kernel launches can update it without a mutex,
// matching the "global, last-writer-wins" design note.
type Controller struct {
	bits uint64
}

// New returns a Controller seeded at the given initial factor (normally 1.0,
// clamped to the valid range).
func New(initial float64) *Controller {
	c := &Controller{}
	c.store(clamp(initial))
	return c
}

func (c *Controller) load() float64 {
	return math.Float64frombits(atomic.LoadUint64(&c.bits))
}

func (c *Controller) store(v float64) {
	atomic.StoreUint64(&c.bits, math.Float64bits(v))
}

// Factor returns the current noise_factor.
func (c *Controller) Factor() float64 { return c.load() }

// Update applies the §4.2/§8 law given an observed duration-derived
// variance: multiply by 0.9 above ThreshHigh, by 1.1 below ThreshLow,
// clamp to [0.1, 2.0], and return (newFactor, derivedError) where
// error = 0.5*|variance-1|.
//
// Testable property (§8): a sequence of Update(v>1.5) calls is monotone
// non-increasing; a sequence of Update(v<0.5) calls is monotone
// non-decreasing; Factor() always stays in [0.1, 2.0].
func (c *Controller) Update(variance float64) (factor, derivedError float64) {
	cur := c.load()
	switch {
	case variance > ThreshHigh:
		cur *= 0.9
	case variance < ThreshLow:
		cur *= 1.1
	}
	cur = clamp(cur)
	c.store(cur)
	derivedError = 0.5 * absf(variance-1)
	return cur, derivedError
}

func clamp(v float64) float64 {
	if v < minFactor {
		return minFactor
	}
	if v > maxFactor {
		return maxFactor
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
