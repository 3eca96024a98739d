package stall

import (
	"context"
	"time"
)

// Stage is a channel pipeline stage: it consumes elements from the input
// channel and produces elements on the returned channel, closing it when the
// input is exhausted or the context is cancelled.
type Stage[In, Out any] func(ctx context.Context, in <-chan In) <-chan Out

// Sensor wraps a stage boundary with per-element timing. The returned stage
// passes elements through unchanged; for each element it reports first the
// starvation sample (time since the previous element was handed off, spent
// waiting on the upstream receive) and then the backpressure sample (time the
// element waited for the downstream send to be accepted). The output channel
// is unbuffered, so the send returns exactly when the consumer has taken the
// element.
//
// Exactly one starvation and one backpressure sample are reported per
// element, in that order; an empty input reports nothing. Cancellation
// mid-wait closes the output without a partial sample.
func Sensor[T any](r Reporter) Stage[T, T] {
	return sensorWith[T](r, time.Now)
}

func sensorWith[T any](r Reporter, now func() time.Time) Stage[T, T] {
	return func(ctx context.Context, in <-chan T) <-chan T {
		out := make(chan T)
		go func() {
			defer close(out)

			last := now()
			for {
				var elem T
				var ok bool
				select {
				case <-ctx.Done():
					return
				case elem, ok = <-in:
					if !ok {
						return
					}
				}
				pushed := now()
				r.ReportStarvedFor(clampedDelta(last, pushed))

				select {
				case <-ctx.Done():
					return
				case out <- elem:
				}
				pulled := now()
				r.ReportBackpressuredFor(clampedDelta(pushed, pulled))

				last = pulled
			}
		}()
		return out
	}
}

// clampedDelta returns the elapsed time between two instants, clamped to
// zero. A negative difference can only come from clock irregularity and is
// treated as a measurement anomaly, not an error.
func clampedDelta(from, to time.Time) time.Duration {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return d
}
