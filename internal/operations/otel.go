package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"filmstats/internal/infrastructure"
)

// OperationTracer creates spans and records metrics for runs and steps
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer wraps a tracer and the pipeline instruments. Either
// may be nil.
func NewOperationTracer(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *OperationTracer {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}
}

// TraceOperation starts the span covering a whole run
func (t *OperationTracer) TraceOperation(ctx context.Context, operationID string, steps []Step) (context.Context, trace.Span) {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	ctx, span := t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.StringSlice("operation.steps", ids),
		),
	)
	t.metrics.RecordActiveRun(ctx, 1)
	return ctx, span
}

// RecordOperationCompletion ends the run span and records the run metrics
func (t *OperationTracer) RecordOperationCompletion(ctx context.Context, span trace.Span, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("operation.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	t.metrics.RecordActiveRun(ctx, -1)
	t.metrics.RecordRun(ctx, duration, err)
	span.End()
}

// TraceStep starts the span for one step attempt
func (t *OperationTracer) TraceStep(ctx context.Context, operationID, stepID string, attempt int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
			attribute.Int("step.attempt", attempt),
		),
	)
}

// RecordStepCompletion ends the step span and records the step duration
func (t *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	t.metrics.RecordStep(ctx, stepID, duration, err)
	span.End()
}

// RecordRows forwards table row counts to the metrics
func (t *OperationTracer) RecordRows(ctx context.Context, table string, loaded, dropped int) {
	infrastructure.AddSpanEvent(ctx, "rows",
		attribute.String("table", table),
		attribute.Int("loaded", loaded),
		attribute.Int("dropped", dropped))
	t.metrics.RecordRows(ctx, table, loaded, dropped)
}
