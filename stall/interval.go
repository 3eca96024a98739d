package stall

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNonPositiveInterval is returned by NewInterval for a zero or negative
// flush interval.
var ErrNonPositiveInterval = errors.New("flush interval must be positive")

// Settings configures an IntervalReporter.
type Settings struct {
	// Interval is the flush period. Required, must be positive.
	Interval time.Duration
	// OnReport is invoked once per flush with the window totals. A category
	// that saw no samples during the window reports the actual window length
	// instead, so a window in which the stage was never invoked reads as the
	// window length rather than an ambiguous zero. May perform its own I/O;
	// it runs on the flush goroutine, never on the sampling path.
	OnReport func(starved, backpressured time.Duration)
	// Logger receives debug-level flush diagnostics. Defaults to a no-op.
	Logger *zap.Logger

	clock func() time.Time
}

// IntervalReporter is a Reporter that accumulates samples and flushes the
// totals to a callback on a fixed period from a background goroutine. Close
// releases the goroutine; the reporter must not be used after Close.
type IntervalReporter struct {
	settings Settings
	acc      Accumulator
	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// NewInterval creates an IntervalReporter and starts its flush task.
func NewInterval(s Settings) (*IntervalReporter, error) {
	if s.Interval <= 0 {
		return nil, ErrNonPositiveInterval
	}
	if s.OnReport == nil {
		s.OnReport = func(time.Duration, time.Duration) {}
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	r := &IntervalReporter{
		settings: s,
		ticker:   time.NewTicker(s.Interval),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go r.flushLoop()
	return r, nil
}

// ReportStarvedFor records a starvation sample for the current window.
func (r *IntervalReporter) ReportStarvedFor(d time.Duration) {
	r.acc.ReportStarvedFor(d)
}

// ReportBackpressuredFor records a backpressure sample for the current window.
func (r *IntervalReporter) ReportBackpressuredFor(d time.Duration) {
	r.acc.ReportBackpressuredFor(d)
}

// Close stops the flush task. No OnReport invocation begins after Close
// returns; the final partial window is dropped. Idempotent.
func (r *IntervalReporter) Close() {
	r.once.Do(func() {
		r.ticker.Stop()
		close(r.done)
		<-r.stopped
	})
}

// flushLoop fires once per interval, measuring the actual elapsed time since
// the previous firing to compensate for scheduler jitter.
func (r *IntervalReporter) flushLoop() {
	defer close(r.stopped)

	last := r.settings.clock()
	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C:
			now := r.settings.clock()
			window := now.Sub(last)
			last = now
			r.flush(window)
		}
	}
}

// flush drains the accumulator and reports the window totals, substituting
// the window length for a category with no samples.
func (r *IntervalReporter) flush(window time.Duration) {
	starved, backpressured, sawStarved, sawBackpressure := r.acc.Drain()
	if !sawStarved {
		starved = window
	}
	if !sawBackpressure {
		backpressured = window
	}

	r.settings.Logger.Debug("Flushing stall totals",
		zap.Duration("window", window),
		zap.Duration("starved", starved),
		zap.Duration("backpressured", backpressured),
	)

	r.settings.OnReport(starved, backpressured)
}
