// Package id provides ULID-based identifier generation.
//
// Identifiers are lexicographically sortable by creation time and carry a
// type-specific prefix (run_*, probe_*) so they stay readable in logs.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one pipeline run.
type RunID string

// ProbeID identifies one instrumented stage boundary.
type ProbeID string

const (
	runPrefix   = "run"
	probePrefix = "probe"
)

// Generator generates prefixed ULIDs.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator backed by crypto/rand.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = &Generator{entropy: rand.Reader}
	})
	return defaultGenerator
}

// Generate creates a new ULID string.
func (g *Generator) Generate() string {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate())
}

// NewRunID generates a new pipeline run ID.
func NewRunID() RunID {
	return RunID(Default().GenerateWithPrefix(runPrefix))
}

// NewProbeID generates a new probe ID.
func NewProbeID() ProbeID {
	return ProbeID(Default().GenerateWithPrefix(probePrefix))
}
