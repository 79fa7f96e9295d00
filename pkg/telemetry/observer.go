package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yesoreyeram/stepflow/pkg/observer"
	"github.com/yesoreyeram/stepflow/pkg/types"
)

// TelemetryObserver implements observer.Observer and records telemetry data
// for instance and task lifecycle events.
type TelemetryObserver struct {
	provider *Provider

	instanceSpan trace.Span
	taskSpans    map[types.TaskID]trace.Span

	instanceStartTime time.Time
	taskStartTimes    map[types.TaskID]time.Time
}

// NewTelemetryObserver creates a telemetry observer bound to provider.
func NewTelemetryObserver(provider *Provider) *TelemetryObserver {
	return &TelemetryObserver{
		provider:       provider,
		taskSpans:      make(map[types.TaskID]trace.Span),
		taskStartTimes: make(map[types.TaskID]time.Time),
	}
}

// OnEvent handles execution events and records telemetry data.
func (o *TelemetryObserver) OnEvent(ctx context.Context, event observer.Event) {
	switch event.Type {
	case observer.EventInstanceStart:
		o.handleInstanceStart(ctx, event)
	case observer.EventInstanceEnd:
		o.handleInstanceEnd(ctx, event)
	case observer.EventTaskStart:
		o.handleTaskStart(ctx, event)
	case observer.EventTaskSuccess:
		o.handleTaskEnd(ctx, event, true)
	case observer.EventTaskFailure:
		o.handleTaskEnd(ctx, event, false)
	}
}

func (o *TelemetryObserver) handleInstanceStart(ctx context.Context, event observer.Event) {
	_, span := o.provider.Tracer().Start(ctx, "instance.execute",
		trace.WithAttributes(
			attribute.String("definition.id", event.DefinitionID),
			attribute.Int("instance.id", event.InstanceID),
		),
	)

	o.instanceSpan = span
	o.instanceStartTime = event.Timestamp

	o.provider.RecordInstanceStart(ctx, event.DefinitionID)
}

func (o *TelemetryObserver) handleInstanceEnd(ctx context.Context, event observer.Event) {
	duration := time.Since(o.instanceStartTime)

	o.provider.RecordInstanceEnd(ctx, event.DefinitionID, duration, event.Status)

	if o.instanceSpan != nil {
		if event.Error != nil {
			o.instanceSpan.RecordError(event.Error)
			o.instanceSpan.SetStatus(codes.Error, event.Error.Error())
		} else {
			o.instanceSpan.SetStatus(codes.Ok, "instance reached a terminal state")
		}
		o.instanceSpan.End()
	}
}

func (o *TelemetryObserver) handleTaskStart(ctx context.Context, event observer.Event) {
	spanCtx := ctx
	if o.instanceSpan != nil {
		spanCtx = trace.ContextWithSpan(ctx, o.instanceSpan)
	}

	_, span := o.provider.Tracer().Start(spanCtx, "task.execute",
		trace.WithAttributes(
			attribute.Int("task.id", int(event.TaskID)),
			attribute.String("task.type", string(event.TaskType)),
			attribute.Int("instance.id", event.InstanceID),
		),
	)

	o.taskSpans[event.TaskID] = span
	o.taskStartTimes[event.TaskID] = event.Timestamp
}

func (o *TelemetryObserver) handleTaskEnd(ctx context.Context, event observer.Event, success bool) {
	var duration time.Duration
	if startTime, ok := o.taskStartTimes[event.TaskID]; ok {
		duration = time.Since(startTime)
		delete(o.taskStartTimes, event.TaskID)
	}

	o.provider.RecordTaskExecution(ctx, event.TaskID, event.TaskType, duration, success)

	if span, ok := o.taskSpans[event.TaskID]; ok {
		if event.Error != nil {
			span.RecordError(event.Error)
			span.SetStatus(codes.Error, event.Error.Error())
		} else {
			span.SetStatus(codes.Ok, "task completed successfully")
		}
		span.End()
		delete(o.taskSpans, event.TaskID)
	}
}
