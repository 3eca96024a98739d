package stall

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBracketSessionForwardsUpstreamStarvation(t *testing.T) {
	rep := &recordingReporter{}
	session := newBracketSession(rep)

	session.upstream().ReportStarvedFor(42 * time.Millisecond)

	require.Equal(t, []sample{{starvedSample, 42 * time.Millisecond}}, rep.all())
}

func TestBracketSessionDiscardsDownstreamStarvation(t *testing.T) {
	rep := &recordingReporter{}
	session := newBracketSession(rep)

	session.downstream().ReportStarvedFor(42 * time.Millisecond)

	assert.Empty(t, rep.all())
}

func TestBracketSessionCorrectsBackpressure(t *testing.T) {
	tests := []struct {
		name       string
		upstream   []time.Duration // banked before the downstream report
		downstream time.Duration
		want       time.Duration
	}{
		{
			name:       "downstream wait subtracted from banked figure",
			upstream:   []time.Duration{100 * time.Millisecond},
			downstream: 30 * time.Millisecond,
			want:       70 * time.Millisecond,
		},
		{
			name:       "banked samples accumulate before resolution",
			upstream:   []time.Duration{40 * time.Millisecond, 40 * time.Millisecond},
			downstream: 30 * time.Millisecond,
			want:       50 * time.Millisecond,
		},
		{
			name:       "clamps to zero when downstream wait dominates",
			upstream:   []time.Duration{10 * time.Millisecond},
			downstream: 30 * time.Millisecond,
			want:       0,
		},
		{
			name:       "nothing banked forwards zero",
			downstream: 30 * time.Millisecond,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &recordingReporter{}
			session := newBracketSession(rep)

			for _, d := range tt.upstream {
				session.upstream().ReportBackpressuredFor(d)
			}
			session.downstream().ReportBackpressuredFor(tt.downstream)

			require.Equal(t, []sample{{backpressuredSample, tt.want}}, rep.all())
		})
	}
}

func TestBracketSessionResetsBankOnResolution(t *testing.T) {
	rep := &recordingReporter{}
	session := newBracketSession(rep)

	session.upstream().ReportBackpressuredFor(100 * time.Millisecond)
	session.downstream().ReportBackpressuredFor(30 * time.Millisecond)
	// Second resolution sees an empty bank, not the previous remainder.
	session.downstream().ReportBackpressuredFor(10 * time.Millisecond)

	require.Equal(t, []sample{
		{backpressuredSample, 70 * time.Millisecond},
		{backpressuredSample, 0},
	}, rep.all())
}

func TestBracketEndToEnd(t *testing.T) {
	identity := func(ctx context.Context, in <-chan int) <-chan int {
		return in
	}

	rep := &recordingReporter{}
	stage := Bracket[int, int](rep, identity)

	in := make(chan int)
	go func() {
		defer close(in)
		for i := 0; i < 3; i++ {
			in <- i
		}
	}()

	var got []int
	for e := range stage(context.Background(), in) {
		got = append(got, e)
	}
	assert.Equal(t, []int{0, 1, 2}, got)

	// One corrected starvation and one corrected backpressure sample per
	// element reach the real reporter; the inner stage's samples never do.
	var starved, backpressured int
	for _, s := range rep.all() {
		switch s.kind {
		case starvedSample:
			starved++
		case backpressuredSample:
			backpressured++
		}
		assert.GreaterOrEqual(t, s.d, time.Duration(0))
	}
	assert.Equal(t, 3, starved)
	assert.Equal(t, 3, backpressured)
}

func TestBracketSessionsAreIndependent(t *testing.T) {
	rep := &recordingReporter{}
	identity := func(ctx context.Context, in <-chan int) <-chan int {
		return in
	}
	stage := Bracket[int, int](rep, identity)

	// Two activations of the same bracketed stage must not share a bank.
	for run := 0; run < 2; run++ {
		in := make(chan int)
		go func() {
			defer close(in)
			in <- 1
		}()
		out := stage(context.Background(), in)
		for range out {
		}
	}

	var backpressured int
	for _, s := range rep.all() {
		if s.kind == backpressuredSample {
			backpressured++
		}
	}
	assert.Equal(t, 2, backpressured)
}
