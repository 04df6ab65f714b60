// Package tracing is a thin wrapper around OpenTelemetry tracing. It keeps
// the instrumentation surface small (Init, StartSpan, EndSpan) so callers
// never import the upstream packages directly, and so builds that do not
// enable tracing pay only for no-op spans.
package tracing
