// Package metric provides Prometheus metrics for the bridge.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: per-bridge registry, request and command instruments
//   - collector.go: scrape-time collector for session and host state
//
// Metrics include:
//
//   - Request counts and latency by endpoint and status
//   - Rejections by error code
//   - Commands enqueued and executed, by outcome
//   - Queue depth, session generation and host busy state
//
// Each Registry owns its own prometheus.Registry so several bridges in one
// process (as in tests) never collide on registration.
package metric
