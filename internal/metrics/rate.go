package metrics

import (
	"sync"
	"time"
)

// RateMeter averages a quantity per second over a short sliding window of
// one-second samples.
type RateMeter struct {
	mu      sync.Mutex
	window  int
	now     func() time.Time
	last    time.Time
	pending float64
	samples []rateSample
	average float64
}

type rateSample struct {
	amount  float64
	seconds float64
}

// DefaultRateWindow is the number of one-second samples averaged.
const DefaultRateWindow = 5

// NewRateMeter creates a meter averaging over window samples. A
// non-positive window uses DefaultRateWindow.
func NewRateMeter(window int) *RateMeter {
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateMeter{window: window, now: time.Now, last: time.Now()}
}

// Add accumulates amount. Once at least a second has passed since the last
// sample, the accumulated amount becomes a new sample and the average is
// recomputed.
func (r *RateMeter) Add(amount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending += amount
	now := r.now()
	elapsed := now.Sub(r.last).Seconds()
	if elapsed < 1 {
		return
	}

	if len(r.samples) >= r.window {
		r.samples = r.samples[1:]
	}
	r.samples = append(r.samples, rateSample{amount: r.pending, seconds: elapsed})
	r.last = now
	r.pending = 0

	var sum, secs float64
	for _, s := range r.samples {
		sum += s.amount
		secs += s.seconds
	}
	r.average = sum / secs
}

// Rate returns the average per second over the window, or zero before the
// first full second.
func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.average
}
