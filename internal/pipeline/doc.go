// Package pipeline runs a synthetic three-stage workload to exercise the
// stall instrumentation end to end.
//
// Architecture:
//
//	Producer (rate-limited)
//	   ↓
//	Worker stage (configurable per-element delay, bracketed by sensors)
//	   ↓
//	Consumer (configurable acceptance delay)
//
// The worker stage is wrapped with stall.Bracket, so its own processing time
// is not misattributed as producer starvation or consumer backpressure. Flush
// windows are forwarded to the metrics collector and to an optional report
// callback (the daemon wires this to the WebSocket hub).
//
// Tuning the three delays makes either stall mode dominate: a low produce
// rate shows up as starvation, a slow consumer as backpressure.
package pipeline
