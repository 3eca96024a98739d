package stall

import (
	"context"
	"time"
)

// bracketSession redistributes the raw samples of a sensor pair placed around
// a nested stage. Placing plain sensors before and after a nested stage
// double-counts its processing time: the upstream sensor sees it as
// backpressure and the downstream sensor sees it as starvation. The session
// banks the upstream sensor's provisional backpressure and, when the
// downstream sensor reports true consumer-side backpressure, forwards the
// corrected remainder to the real reporter. One session exists per bracketed
// pipeline activation.
type bracketSession struct {
	real    Reporter
	pending cell // provisional upstream backpressure, unresolved
}

func newBracketSession(real Reporter) *bracketSession {
	return &bracketSession{real: real}
}

func (s *bracketSession) upstream() Reporter   { return upstreamView{s} }
func (s *bracketSession) downstream() Reporter { return downstreamView{s} }

// upstreamView is the Reporter handed to the sensor on the producer side of
// the nested stage. Starvation there is genuine producer-side starvation and
// forwards unchanged; backpressure conflates consumer stall with the nested
// stage's own processing time, so it is banked for later correction.
type upstreamView struct {
	s *bracketSession
}

func (v upstreamView) ReportStarvedFor(d time.Duration) {
	v.s.real.ReportStarvedFor(d)
}

func (v upstreamView) ReportBackpressuredFor(d time.Duration) {
	v.s.pending.add(d)
}

// downstreamView is the Reporter handed to the sensor on the consumer side.
// Starvation there measures nested-stage processing time, already latent in
// the banked upstream figure, and is discarded. Backpressure is the true
// consumer-side wait: it is subtracted from the banked figure and the
// non-negative remainder forwards as the corrected backpressure sample.
type downstreamView struct {
	s *bracketSession
}

func (downstreamView) ReportStarvedFor(time.Duration) {}

func (v downstreamView) ReportBackpressuredFor(d time.Duration) {
	banked, _ := v.s.pending.drain()
	adjusted := banked - d
	if adjusted < 0 {
		adjusted = 0
	}
	v.s.real.ReportBackpressuredFor(adjusted)
}

// Bracket composes sensor -> inner -> sensor around a nested stage, with the
// two sensors reporting through a shared per-activation session so that the
// combined measurement attributes stall relative to the outer pipeline rather
// than counting the nested stage's processing time twice. The session is
// created fresh on each activation and holds no resources beyond its
// accumulator cell.
func Bracket[In, Out any](r Reporter, inner Stage[In, Out]) Stage[In, Out] {
	return func(ctx context.Context, in <-chan In) <-chan Out {
		session := newBracketSession(r)
		upstream := sensorWith[In](session.upstream(), time.Now)(ctx, in)
		return sensorWith[Out](session.downstream(), time.Now)(ctx, inner(ctx, upstream))
	}
}
