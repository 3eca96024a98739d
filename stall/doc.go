// Package stall instruments channel pipeline stages to separate the two
// mutually exclusive forms of pipeline stall: starvation (waiting for the
// upstream producer to yield the next element) and backpressure (an already
// produced element waiting for the downstream consumer to accept it).
//
// The instrumentation is functionally transparent: a wrapped stage passes
// elements through unchanged and only adds timing samples on the side.
//
// Components:
//   - Reporter: capability interface receiving duration samples
//   - Accumulator: sums samples into drain-and-reset cells
//   - IntervalReporter: periodic background flush of accumulated totals
//   - Sensor: per-element measurement around one stage boundary
//   - Bracket: sensor pair around a nested stage with corrected attribution
//
// Example Usage:
//
//	rep, err := stall.NewInterval(stall.Settings{
//		Interval: time.Second,
//		OnReport: func(starved, backpressured time.Duration) {
//			log.Printf("starved=%s backpressured=%s", starved, backpressured)
//		},
//	})
//	if err != nil {
//		return err
//	}
//	defer rep.Close()
//
//	out := stall.Sensor[Record](rep)(ctx, in)
//
// Precondition on the host pipeline: a sensor's measurements are meaningful
// only if emitting an element blocks until the consumer has accepted it. The
// output channels created by Sensor and Bracket are unbuffered, so a send
// returns exactly when the receiver has taken the element; inserting a
// buffered channel between a sensor and its consumer breaks the backpressure
// measurement (the sensor would observe the buffer, not the consumer).
package stall
