package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yesoreyeram/stepflow/pkg/types"
)

const (
	serviceName = "stepflow-engine"

	metricInstanceStarted   = "instance.started.total"
	metricInstanceDuration  = "instance.duration"
	metricInstanceCompleted = "instance.completed.total"
	metricInstanceFailed    = "instance.failed.total"
	metricTaskExecutions    = "task.executions.total"
	metricTaskDuration      = "task.execution.duration"
	metricTaskSuccess       = "task.executions.success.total"
	metricTaskFailure       = "task.executions.failure.total"
	metricTaskSuspended     = "task.suspended.total"
	metricTaskResumed       = "task.resumed.total"
	metricHTTPCalls         = "http.calls.total"
	metricHTTPDuration      = "http.call.duration"
)

// Provider manages OpenTelemetry setup and provides access to tracers and
// meters for the engine's instance and task lifecycle.
type Provider struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider trace.TracerProvider
	meter          metric.Meter
	tracer         trace.Tracer

	instanceStarted   metric.Int64Counter
	instanceDuration  metric.Float64Histogram
	instanceCompleted metric.Int64Counter
	instanceFailed    metric.Int64Counter
	taskExecutions    metric.Int64Counter
	taskDuration      metric.Float64Histogram
	taskSuccess       metric.Int64Counter
	taskFailure       metric.Int64Counter
	taskSuspended     metric.Int64Counter
	taskResumed       metric.Int64Counter
	httpCalls         metric.Int64Counter
	httpDuration      metric.Float64Histogram

	mu sync.RWMutex
}

// Config holds telemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableTracing  bool
	EnableMetrics  bool
}

// DefaultConfig returns default telemetry configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
	}
}

// NewProvider creates a telemetry provider with a Prometheus metrics
// exporter, initializing OpenTelemetry with the given configuration.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	provider := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if config.EnableMetrics {
		if err := provider.initMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	if config.EnableTracing {
		provider.initTracing()
	}

	return provider, nil
}

func (p *Provider) initMetrics(res *resource.Resource) error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)

	p.meter = p.meterProvider.Meter(serviceName)

	return p.createMetricInstruments()
}

func (p *Provider) initTracing() {
	// Production deployments should configure an OTLP/Jaeger exporter here;
	// the global provider is sufficient for the engine's own span-free use.
	p.tracerProvider = otel.GetTracerProvider()
	p.tracer = p.tracerProvider.Tracer(serviceName)
}

func (p *Provider) createMetricInstruments() error {
	var err error

	if p.instanceStarted, err = p.meter.Int64Counter(
		metricInstanceStarted, metric.WithDescription("Total number of process instances started"),
	); err != nil {
		return err
	}

	if p.instanceDuration, err = p.meter.Float64Histogram(
		metricInstanceDuration, metric.WithDescription("Instance lifetime in milliseconds"), metric.WithUnit("ms"),
	); err != nil {
		return err
	}

	if p.instanceCompleted, err = p.meter.Int64Counter(
		metricInstanceCompleted, metric.WithDescription("Total number of instances that reached COMPLETED"),
	); err != nil {
		return err
	}

	if p.instanceFailed, err = p.meter.Int64Counter(
		metricInstanceFailed, metric.WithDescription("Total number of instances that reached FAILED"),
	); err != nil {
		return err
	}

	if p.taskExecutions, err = p.meter.Int64Counter(
		metricTaskExecutions, metric.WithDescription("Total number of task executions"),
	); err != nil {
		return err
	}

	if p.taskDuration, err = p.meter.Float64Histogram(
		metricTaskDuration, metric.WithDescription("Task execution duration in milliseconds"), metric.WithUnit("ms"),
	); err != nil {
		return err
	}

	if p.taskSuccess, err = p.meter.Int64Counter(
		metricTaskSuccess, metric.WithDescription("Total number of successful task executions"),
	); err != nil {
		return err
	}

	if p.taskFailure, err = p.meter.Int64Counter(
		metricTaskFailure, metric.WithDescription("Total number of failed task executions"),
	); err != nil {
		return err
	}

	if p.taskSuspended, err = p.meter.Int64Counter(
		metricTaskSuspended, metric.WithDescription("Total number of service tasks that suspended awaiting completion"),
	); err != nil {
		return err
	}

	if p.taskResumed, err = p.meter.Int64Counter(
		metricTaskResumed, metric.WithDescription("Total number of suspended tasks resumed via CompleteTask"),
	); err != nil {
		return err
	}

	if p.httpCalls, err = p.meter.Int64Counter(
		metricHTTPCalls, metric.WithDescription("Total number of outbound webhook task HTTP calls"),
	); err != nil {
		return err
	}

	if p.httpDuration, err = p.meter.Float64Histogram(
		metricHTTPDuration, metric.WithDescription("Webhook task HTTP call duration in milliseconds"), metric.WithUnit("ms"),
	); err != nil {
		return err
	}

	return nil
}

// Tracer returns the tracer for creating spans.
func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracer
}

// Meter returns the meter for recording metrics.
func (p *Provider) Meter() metric.Meter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meter
}

// RecordInstanceStart records that a process instance started.
func (p *Provider) RecordInstanceStart(ctx context.Context, definitionID string) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("definition.id", definitionID))
	p.instanceStarted.Add(ctx, 1, attrs)
}

// RecordInstanceEnd records an instance reaching a terminal state.
func (p *Provider) RecordInstanceEnd(ctx context.Context, definitionID string, duration time.Duration, status types.Status) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("definition.id", definitionID),
		attribute.String("status", string(status)),
	)
	p.instanceDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if status == types.StatusCompleted {
		p.instanceCompleted.Add(ctx, 1, attrs)
	} else if status == types.StatusFailed {
		p.instanceFailed.Add(ctx, 1, attrs)
	}
}

// RecordTaskExecution records metrics for a single task execution.
func (p *Provider) RecordTaskExecution(ctx context.Context, taskID types.TaskID, taskType types.TaskType, duration time.Duration, success bool) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.Int("task.id", int(taskID)),
		attribute.String("task.type", string(taskType)),
	)
	p.taskExecutions.Add(ctx, 1, attrs)
	p.taskDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if success {
		p.taskSuccess.Add(ctx, 1, attrs)
	} else {
		p.taskFailure.Add(ctx, 1, attrs)
	}
}

// RecordTaskSuspended records a service task suspending to await completion.
func (p *Provider) RecordTaskSuspended(ctx context.Context, taskType types.TaskType) {
	if p.meter == nil {
		return
	}
	p.taskSuspended.Add(ctx, 1, metric.WithAttributes(attribute.String("task.type", string(taskType))))
}

// RecordTaskResumed records a suspended task being resumed via CompleteTask.
func (p *Provider) RecordTaskResumed(ctx context.Context, taskType types.TaskType) {
	if p.meter == nil {
		return
	}
	p.taskResumed.Add(ctx, 1, metric.WithAttributes(attribute.String("task.type", string(taskType))))
}

// RecordHTTPCall records metrics for a webhook task's outbound HTTP call.
func (p *Provider) RecordHTTPCall(ctx context.Context, method, url string, statusCode int, duration time.Duration) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
		attribute.Int("http.status_code", statusCode),
	)
	p.httpCalls.Add(ctx, 1, attrs)
	p.httpDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// Shutdown gracefully shuts down the telemetry provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
	}
	return nil
}
