package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Stall metrics
	StarvedSeconds       *prometheus.CounterVec
	BackpressuredSeconds *prometheus.CounterVec
	FlushesTotal         *prometheus.CounterVec

	// Pipeline metrics
	ElementsProcessed prometheus.Counter
	PipelineRunning   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests     int64                    `json:"total_requests"`
	TotalFlushes      int64                    `json:"total_flushes"`
	ElementsProcessed int64                    `json:"elements_processed"`
	Probes            map[string]ProbeSnapshot `json:"probes"`
	UptimeSeconds     float64                  `json:"uptime_seconds"`
}

// ProbeSnapshot holds the most recent flush window for one probe
type ProbeSnapshot struct {
	Starved       time.Duration `json:"starved_ns"`
	Backpressured time.Duration `json:"backpressured_ns"`
	ReportedAt    time.Time     `json:"reported_at"`
}

// NewMetrics creates a new metrics collector with its own registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry:  registry,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stallmeter_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stallmeter_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		// Stall metrics
		StarvedSeconds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stallmeter_starved_seconds_total",
				Help: "Cumulative time spent waiting for the upstream producer",
			},
			[]string{"probe"},
		),
		BackpressuredSeconds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stallmeter_backpressured_seconds_total",
				Help: "Cumulative time elements waited on the downstream consumer",
			},
			[]string{"probe"},
		),
		FlushesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stallmeter_flushes_total",
				Help: "Total number of reported flush windows",
			},
			[]string{"probe"},
		),

		// Pipeline metrics
		ElementsProcessed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stallmeter_elements_processed_total",
				Help: "Total number of elements through the pipeline",
			},
		),
		PipelineRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "stallmeter_pipeline_running",
				Help: "Whether the synthetic pipeline is running",
			},
		),
	}
}

// Registry returns the registry backing this collector
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.mu.Unlock()
}

// RecordFlush records one flush window for a probe
func (m *Metrics) RecordFlush(probe string, starved, backpressured time.Duration) {
	m.StarvedSeconds.WithLabelValues(probe).Add(starved.Seconds())
	m.BackpressuredSeconds.WithLabelValues(probe).Add(backpressured.Seconds())
	m.FlushesTotal.WithLabelValues(probe).Inc()

	m.mu.Lock()
	m.snapshot.TotalFlushes++
	if m.snapshot.Probes == nil {
		m.snapshot.Probes = make(map[string]ProbeSnapshot)
	}
	m.snapshot.Probes[probe] = ProbeSnapshot{
		Starved:       starved,
		Backpressured: backpressured,
		ReportedAt:    time.Now(),
	}
	m.mu.Unlock()
}

// RecordElements records processed pipeline elements
func (m *Metrics) RecordElements(n int) {
	m.ElementsProcessed.Add(float64(n))

	m.mu.Lock()
	m.snapshot.ElementsProcessed += int64(n)
	m.mu.Unlock()
}

// SetPipelineRunning sets the pipeline running gauge
func (m *Metrics) SetPipelineRunning(running bool) {
	if running {
		m.PipelineRunning.Set(1)
	} else {
		m.PipelineRunning.Set(0)
	}
}

// GetSnapshot returns a copy of the current metric values
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	snap.Probes = make(map[string]ProbeSnapshot, len(m.snapshot.Probes))
	for k, v := range m.snapshot.Probes {
		snap.Probes[k] = v
	}
	return snap
}
