package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"electcli/internal/infrastructure"
	"electcli/pkg/contracts/domain"
)

// TracerName is the scope of the no-op tracer used when telemetry is off.
const TracerName = "electcli.pipeline"

// Exclusion reasons reported on pipeline_rows_excluded_total.
const (
	ReasonFooter       = "footer"
	ReasonInvalidValue = "invalid_value"
	ReasonZeroTotal    = "zero_total"
	ReasonNoCandidates = "no_candidates"
	ReasonDuplicate    = "duplicate"
)

// PipelineMetrics holds the metric instruments of a pipeline run.
type PipelineMetrics struct {
	RowsLoaded   metric.Int64Counter
	RowsExcluded metric.Int64Counter
	Diagnostics  metric.Int64Counter
	StepDuration metric.Float64Histogram
	SeatsWon     metric.Int64Counter
}

// CreatePipelineMetrics registers the pipeline instruments on meter.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"pipeline_rows_loaded_total",
		metric.WithDescription("Total number of data rows read from source sheets"),
	)
	if err != nil {
		return nil, err
	}

	rowsExcluded, err := meter.Int64Counter(
		"pipeline_rows_excluded_total",
		metric.WithDescription("Total number of rows or constituencies left out, by reason"),
	)
	if err != nil {
		return nil, err
	}

	diagnostics, err := meter.Int64Counter(
		"pipeline_diagnostics_total",
		metric.WithDescription("Total number of diagnostics raised, by kind"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"pipeline_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	seatsWon, err := meter.Int64Counter(
		"pipeline_seats_won_total",
		metric.WithDescription("Total number of constituencies won, by party"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsLoaded:   rowsLoaded,
		RowsExcluded: rowsExcluded,
		Diagnostics:  diagnostics,
		StepDuration: stepDuration,
		SeatsWon:     seatsWon,
	}, nil
}

// PipelineTracer provides OpenTelemetry instrumentation for pipeline steps
type PipelineTracer struct {
	tracer  trace.Tracer
	metrics *PipelineMetrics
}

// NewPipelineTracer instruments with the given telemetry, or with no-op providers when it is nil.
func NewPipelineTracer(telemetry *infrastructure.Telemetry) (*PipelineTracer, error) {
	var (
		tracer trace.Tracer
		meter  metric.Meter
	)
	if telemetry != nil {
		tracer = telemetry.Tracer
		meter = telemetry.Meter
	} else {
		tracer = tracenoop.NewTracerProvider().Tracer(TracerName)
		meter = metricnoop.NewMeterProvider().Meter(TracerName)
	}

	metrics, err := CreatePipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	return &PipelineTracer{tracer: tracer, metrics: metrics}, nil
}

// TraceRun creates the root span of one run.
func (pt *PipelineTracer) TraceRun(ctx context.Context, runID, input string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.input", input),
		),
	)
}

// TraceStep creates a span for one step of one sheet.
func (pt *PipelineTracer) TraceStep(ctx context.Context, stepID, sheet string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("step.id", stepID),
			attribute.String("sheet", sheet),
		),
	)
}

// RecordStepCompletion records step duration and closes out the span status.
func (pt *PipelineTracer) RecordStepCompletion(ctx context.Context, span trace.Span, state *StepState, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	pt.metrics.StepDuration.Record(ctx, state.Duration().Seconds(),
		metric.WithAttributes(
			attribute.String("step", state.ID),
			attribute.String("status", status),
		),
	)

	counts := state.CountsSnapshot()
	span.SetAttributes(attribute.String("step.status", status))
	infrastructure.AddSpanEvent(ctx, "step.completed", counts)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}

// RecordRowsLoaded counts the data rows of a loaded sheet.
func (pt *PipelineTracer) RecordRowsLoaded(ctx context.Context, sheet string, n int) {
	pt.metrics.RowsLoaded.Add(ctx, int64(n), metric.WithAttributes(attribute.String("sheet", sheet)))
}

// RecordExcluded counts left-out rows for one reason.
func (pt *PipelineTracer) RecordExcluded(ctx context.Context, reason string, n int) {
	if n <= 0 {
		return
	}
	pt.metrics.RowsExcluded.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordDiagnostics counts diagnostics per kind.
func (pt *PipelineTracer) RecordDiagnostics(ctx context.Context, diagnostics []domain.Diagnostic) {
	for _, d := range diagnostics {
		pt.metrics.Diagnostics.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(d.Kind))))
	}
}

// RecordSeats counts seats won per party.
func (pt *PipelineTracer) RecordSeats(ctx context.Context, totals []domain.SeatTotal) {
	for _, st := range totals {
		pt.metrics.SeatsWon.Add(ctx, int64(st.Seats), metric.WithAttributes(attribute.String("party", string(st.Party))))
	}
}
