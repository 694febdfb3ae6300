// Package telemetry provides OpenTelemetry integration for distributed tracing and metrics.
// It enables comprehensive observability for the fleet dispatcher with support for:
//   - Distributed tracing with span context propagation across ticks and phases
//   - Prometheus metrics for tick, phase, and POI-capacity-rejection statistics
//   - Integration with industry-standard observability platforms
package telemetry
