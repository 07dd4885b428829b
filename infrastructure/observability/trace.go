package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanRun   = "heatshift.run"
	SpanStep  = "heatshift.step"
	SpanGroup = "heatshift.group"
)

// StartRun starts the span covering a whole run.
func StartRun(ctx context.Context, tracer trace.Tracer, runID string, seed uint64, steps int) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanRun, trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int64("run.seed", int64(seed)),
		attribute.Int("run.steps", steps),
	))
}

// StartStep starts the span of one simulated week.
func StartStep(ctx context.Context, tracer trace.Tracer, step int) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanStep, trace.WithAttributes(attribute.Int("step", step)))
}

// StartGroup starts the span of one agent group within a step.
func StartGroup(ctx context.Context, tracer trace.Tracer, group string, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanGroup, trace.WithAttributes(
		attribute.String("group", group),
		attribute.Int("group.size", size),
	))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
