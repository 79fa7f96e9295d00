// Package telemetry provides OpenTelemetry integration for distributed
// tracing and metrics. It enables observability for process engine
// execution with support for:
//   - Distributed tracing with spans per instance and per task
//   - Prometheus metrics for instance and task execution statistics
//   - Webhook task HTTP call metrics
package telemetry
