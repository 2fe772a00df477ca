package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Stage outcomes
const (
	OutcomeOK         = "ok"
	OutcomeIneligible = "ineligible"
	OutcomeBusy       = "busy"
	OutcomeCancelled  = "cancelled"
	OutcomeFailed     = "failed"
)

// StageOutcome classifies the error returned by a stage
func StageOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, shared.ErrNotEligible), errors.Is(err, shared.ErrInvalidState):
		return OutcomeIneligible
	case errors.Is(err, shared.ErrLockNotAcquired):
		return OutcomeBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// WorkflowMetrics instruments stage execution and counts workflow events.
// It implements the workflow StageObserver port and is subscribed to the
// event bus as a handler.
type WorkflowMetrics struct {
	stageTotal    *Counter
	stageDuration *Histogram
	eventsTotal   *Counter
	verifyTotal   *Counter
	profiling     bool
}

// NewWorkflowMetrics creates the workflow instruments. With profiling on,
// stage execution carries a pprof stage label.
func NewWorkflowMetrics(meter metric.Meter, profiling bool) (*WorkflowMetrics, error) {
	in := NewInstruments(meter)
	m := &WorkflowMetrics{
		stageTotal:    in.Counter("workflow_stage_total", "Stage executions by stage and outcome", "{execution}"),
		stageDuration: in.Histogram("workflow_stage_duration_seconds", "Stage execution latency", "s", StageDurationBuckets),
		eventsTotal:   in.Counter("workflow_events_total", "Committed workflow events by type", "{event}"),
		verifyTotal:   in.Counter("proof_verifications_total", "Bundle verifications by result", "{verification}"),
		profiling:     profiling,
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveStage wraps fn in a span, records its outcome and duration and,
// when profiling, labels its samples with the stage
func (m *WorkflowMetrics) ObserveStage(ctx context.Context, stage trade.Stage, fn func(ctx context.Context) error) error {
	ctx, span := StartSpan(ctx, "workflow."+string(stage), attribute.String(SpanAttrStage, string(stage)))
	defer span.End()

	start := time.Now()
	var err error
	if m.profiling {
		WithProfilingLabels(ctx, map[string]string{ProfilingLabelStage: string(stage)}, func(ctx context.Context) {
			err = fn(ctx)
		})
	} else {
		err = fn(ctx)
	}

	outcome := StageOutcome(err)
	span.SetAttributes(attribute.String(SpanAttrOutcome, outcome))
	if outcome == OutcomeFailed {
		RecordError(span, err)
	} else if err == nil {
		span.SetStatus(codes.Ok, "")
	}

	attrs := []attribute.KeyValue{AttrStage.String(string(stage)), AttrOutcome.String(outcome)}
	m.stageTotal.Inc(ctx, attrs...)
	m.stageDuration.RecordDuration(ctx, time.Since(start), attrs...)
	return err
}

// Handle counts a committed domain event
func (m *WorkflowMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	m.eventsTotal.Inc(ctx, attribute.String("event_type", event.EventType()))
	if event.EventType() == trade.EventTypeBundleVerified {
		if result, ok := event.Details()["result"].(string); ok {
			m.verifyTotal.Inc(ctx, AttrVerifyResult.String(result))
		}
	}
	return nil
}

// EventTypes returns nil so every event is counted
func (m *WorkflowMetrics) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*WorkflowMetrics)(nil)
