// Package metric provides Prometheus metrics for habbo-go.
//
//   - prometheus.go: registry of connection and authentication metrics
//     plus the /metrics HTTP handler
//   - collector.go: SessionCollector, reporting session token state at
//     scrape time
//
// Each Registry owns its own prometheus.Registry, so tests and multiple
// clients in one process never collide on registration.
package metric
