package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixedIDs(t *testing.T) {
	run := NewRunID()
	probe := NewProbeID()

	assert.True(t, strings.HasPrefix(string(run), "run_"))
	assert.True(t, strings.HasPrefix(string(probe), "probe_"))
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[RunID]bool)
	for i := 0; i < 1000; i++ {
		id := NewRunID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
