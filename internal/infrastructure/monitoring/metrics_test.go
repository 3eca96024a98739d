package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFlushUpdatesSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordFlush("worker", 120*time.Millisecond, 30*time.Millisecond)
	m.RecordFlush("worker", 80*time.Millisecond, 10*time.Millisecond)

	snap := m.GetSnapshot()
	assert.Equal(t, int64(2), snap.TotalFlushes)

	probe, ok := snap.Probes["worker"]
	require.True(t, ok)
	assert.Equal(t, 80*time.Millisecond, probe.Starved)
	assert.Equal(t, 10*time.Millisecond, probe.Backpressured)
	assert.False(t, probe.ReportedAt.IsZero())
}

func TestRecordElements(t *testing.T) {
	m := NewMetrics()

	m.RecordElements(5)
	m.RecordElements(3)

	assert.Equal(t, int64(8), m.GetSnapshot().ElementsProcessed)
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewMetrics()
	m.RecordFlush("worker", time.Millisecond, time.Millisecond)

	snap := m.GetSnapshot()
	snap.Probes["worker"] = ProbeSnapshot{}

	assert.Equal(t, time.Millisecond, m.GetSnapshot().Probes["worker"].Starved)
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	// Each collector owns its registry, so two instances must not collide.
	a := NewMetrics()
	b := NewMetrics()

	a.RecordElements(1)
	assert.Equal(t, int64(0), b.GetSnapshot().ElementsProcessed)
}
