// Package server assembles the HTTP surface of the daemon: health check,
// Prometheus exposition, a JSON stats snapshot, and the WebSocket flush feed.
package server
