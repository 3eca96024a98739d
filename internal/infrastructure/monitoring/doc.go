// Package monitoring exports stall measurements to Prometheus.
//
// Metrics:
//   - stallmeter_starved_seconds_total{probe}: cumulative producer-side stall
//   - stallmeter_backpressured_seconds_total{probe}: cumulative consumer-side stall
//   - stallmeter_flushes_total{probe}: flush windows reported
//   - stallmeter_elements_processed_total: elements through the pipeline
//   - stallmeter_pipeline_running: whether the workload is active
//   - stallmeter_http_requests_total / stallmeter_http_request_duration_seconds:
//     dashboard server traffic
//
// Each Metrics instance owns its own registry, exposed via Registry for the
// /metrics handler. A JSON snapshot of current values backs the /stats
// endpoint for dashboards that do not scrape Prometheus.
package monitoring
