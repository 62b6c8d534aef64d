// Package tracer provides OpenTelemetry tracing helpers for habbo-go.
//
// Spans are created from the globally registered tracer provider
// (otel.SetTracerProvider). Without an SDK provider installed every span is
// a no-op, so instrumented code carries no cost until an exporter is wired
// in by the embedding application.
package tracer
