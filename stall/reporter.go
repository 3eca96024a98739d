package stall

import (
	"sync"
	"time"
)

// Reporter receives duration samples from a sensor. Both methods must record
// the sample without blocking on downstream I/O; a zero duration is a valid
// sample and must be recorded (it means no stall occurred).
type Reporter interface {
	// ReportStarvedFor records time spent waiting for the upstream producer.
	ReportStarvedFor(d time.Duration)
	// ReportBackpressuredFor records time an element waited on the consumer.
	ReportBackpressuredFor(d time.Duration)
}

// NopReporter discards all samples.
type NopReporter struct{}

func (NopReporter) ReportStarvedFor(time.Duration)       {}
func (NopReporter) ReportBackpressuredFor(time.Duration) {}

// cell is a mutex-guarded optional duration sum. The zero value is empty.
// Contended between exactly one sample writer and one drainer, so a plain
// mutex suffices.
type cell struct {
	mu    sync.Mutex
	seen  bool
	total time.Duration
}

// add folds a sample into the cell. Negative samples clamp to zero.
func (c *cell) add(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.mu.Lock()
	c.total += d
	c.seen = true
	c.mu.Unlock()
}

// drain takes the current sum and resets the cell in one indivisible step.
// The boolean reports whether any sample arrived since the previous drain.
func (c *cell) drain() (time.Duration, bool) {
	c.mu.Lock()
	d, ok := c.total, c.seen
	c.total, c.seen = 0, false
	c.mu.Unlock()
	return d, ok
}

// Accumulator is a Reporter that sums incoming samples into two cells, one
// per stall category, until drained. The zero value is ready to use.
type Accumulator struct {
	starved       cell
	backpressured cell
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// ReportStarvedFor folds a starvation sample into the accumulator.
func (a *Accumulator) ReportStarvedFor(d time.Duration) {
	a.starved.add(d)
}

// ReportBackpressuredFor folds a backpressure sample into the accumulator.
func (a *Accumulator) ReportBackpressuredFor(d time.Duration) {
	a.backpressured.add(d)
}

// Drain atomically takes and resets both category sums. Each individual
// sample is reflected in exactly one drain: a sample arriving concurrently
// lands either fully in this drain or fully in the next, never split and
// never lost. The booleans report whether the respective category saw any
// sample since the previous drain.
func (a *Accumulator) Drain() (starved, backpressured time.Duration, sawStarved, sawBackpressure bool) {
	starved, sawStarved = a.starved.drain()
	backpressured, sawBackpressure = a.backpressured.drain()
	return starved, backpressured, sawStarved, sawBackpressure
}
