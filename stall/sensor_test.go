package stall

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClock returns successive instants from the script; once exhausted
// it keeps returning the final instant.
func scriptedClock(instants ...time.Time) func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(instants) {
			return instants[len(instants)-1]
		}
		t := instants[i]
		i++
		return t
	}
}

// runSensor feeds the elements through the stage with a prompt consumer and
// returns the pass-through output.
func runSensor(t *testing.T, stage Stage[int, int], elems []int) []int {
	t.Helper()

	in := make(chan int)
	go func() {
		defer close(in)
		for _, e := range elems {
			in <- e
		}
	}()

	var got []int
	for e := range stage(context.Background(), in) {
		got = append(got, e)
	}
	return got
}

func TestSensorPassesElementsThrough(t *testing.T) {
	rep := &recordingReporter{}
	got := runSensor(t, Sensor[int](rep), []int{1, 2, 3, 4})
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestSensorSampleOrdering(t *testing.T) {
	tests := []struct {
		name  string
		elems []int
	}{
		{name: "single element", elems: []int{7}},
		{name: "several elements", elems: []int{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &recordingReporter{}
			runSensor(t, Sensor[int](rep), tt.elems)

			samples := rep.all()
			require.Len(t, samples, 2*len(tt.elems))
			for i, s := range samples {
				if i%2 == 0 {
					assert.Equal(t, starvedSample, s.kind, "sample %d", i)
				} else {
					assert.Equal(t, backpressuredSample, s.kind, "sample %d", i)
				}
				assert.GreaterOrEqual(t, s.d, time.Duration(0))
			}
		})
	}
}

func TestSensorEmptyInput(t *testing.T) {
	rep := &recordingReporter{}
	got := runSensor(t, Sensor[int](rep), nil)
	assert.Empty(t, got)
	assert.Empty(t, rep.all())
}

// A producer that takes 100ms then 50ms with an instant consumer must yield
// starvation samples [100ms, 50ms] and backpressure samples [0, 0].
func TestSensorAttributesStarvation(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := scriptedClock(
		base,                            // loop start
		base.Add(100*time.Millisecond),  // element 1 received
		base.Add(100*time.Millisecond),  // element 1 accepted
		base.Add(150*time.Millisecond),  // element 2 received
		base.Add(150*time.Millisecond),  // element 2 accepted
	)

	rep := &recordingReporter{}
	runSensor(t, sensorWith[int](rep, clock), []int{1, 2})

	require.Equal(t, []sample{
		{starvedSample, 100 * time.Millisecond},
		{backpressuredSample, 0},
		{starvedSample, 50 * time.Millisecond},
		{backpressuredSample, 0},
	}, rep.all())
}

// An instant producer with a consumer that takes 200ms per element must yield
// backpressure samples [200ms, 200ms] and starvation samples [0, 0].
func TestSensorAttributesBackpressure(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := scriptedClock(
		base,
		base,                            // element 1 received instantly
		base.Add(200*time.Millisecond),  // element 1 accepted after 200ms
		base.Add(200*time.Millisecond),  // element 2 received instantly
		base.Add(400*time.Millisecond),  // element 2 accepted after 200ms
	)

	rep := &recordingReporter{}
	runSensor(t, sensorWith[int](rep, clock), []int{1, 2})

	require.Equal(t, []sample{
		{starvedSample, 0},
		{backpressuredSample, 200 * time.Millisecond},
		{starvedSample, 0},
		{backpressuredSample, 200 * time.Millisecond},
	}, rep.all())
}

func TestSensorClampsClockAnomaly(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// Clock runs backwards between the loop start and the first receive.
	clock := scriptedClock(
		base.Add(time.Second),
		base,
		base,
	)

	rep := &recordingReporter{}
	runSensor(t, sensorWith[int](rep, clock), []int{1})

	samples := rep.all()
	require.Len(t, samples, 2)
	assert.Equal(t, time.Duration(0), samples[0].d)
}

func TestSensorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan int) // never closed, never written
	out := Sensor[int](&recordingReporter{})(ctx, in)

	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok, "output should close on cancellation")
	case <-time.After(time.Second):
		t.Fatal("output did not close after cancellation")
	}
}

func TestSensorCancellationMidSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan int, 1)
	in <- 1
	close(in)

	rep := &recordingReporter{}
	out := Sensor[int](rep)(ctx, in) // nobody receives: the send blocks

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case _, ok := <-out:
		if ok {
			// The element raced ahead of the cancellation; the channel must
			// still close afterwards.
			_, ok = <-out
			assert.False(t, ok)
		}
	case <-time.After(time.Second):
		t.Fatal("output did not close after cancellation")
	}
}
