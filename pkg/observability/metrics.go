package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// QueueMetrics holds counters for queue transitions. A nil *QueueMetrics is
// valid and records nothing, so the engine can run unmetered.
type QueueMetrics struct {
	enqueued metric.Int64Counter
	executed metric.Int64Counter
	vetoed   metric.Int64Counter
	approved metric.Int64Counter
	skipped  metric.Int64Counter
	failures metric.Int64Counter
}

// NewQueueMetrics registers the queue counters on meter.
func NewQueueMetrics(meter metric.Meter) (*QueueMetrics, error) {
	m := &QueueMetrics{}
	var err error

	if m.enqueued, err = meter.Int64Counter("airlock.queue.enqueued",
		metric.WithDescription("Entries appended to the commitment queue")); err != nil {
		return nil, fmt.Errorf("observability: enqueued counter: %w", err)
	}
	if m.executed, err = meter.Int64Counter("airlock.queue.executed",
		metric.WithDescription("Entries executed through the gate")); err != nil {
		return nil, fmt.Errorf("observability: executed counter: %w", err)
	}
	if m.vetoed, err = meter.Int64Counter("airlock.queue.vetoed",
		metric.WithDescription("Entries cancelled by administrator veto")); err != nil {
		return nil, fmt.Errorf("observability: vetoed counter: %w", err)
	}
	if m.approved, err = meter.Int64Counter("airlock.queue.approved",
		metric.WithDescription("Approval credits granted by the administrator")); err != nil {
		return nil, fmt.Errorf("observability: approved counter: %w", err)
	}
	if m.skipped, err = meter.Int64Counter("airlock.queue.skipped",
		metric.WithDescription("Expired entries skipped without execution")); err != nil {
		return nil, fmt.Errorf("observability: skipped counter: %w", err)
	}
	if m.failures, err = meter.Int64Counter("airlock.queue.failures",
		metric.WithDescription("Operations rejected by the queue, by reason")); err != nil {
		return nil, fmt.Errorf("observability: failures counter: %w", err)
	}
	return m, nil
}

// Enqueued records one appended entry.
func (m *QueueMetrics) Enqueued(ctx context.Context, secret bool) {
	if m == nil {
		return
	}
	m.enqueued.Add(ctx, 1, metric.WithAttributes(attribute.Bool("secret", secret)))
}

// Executed records one executed entry.
func (m *QueueMetrics) Executed(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.executed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// Vetoed records n cancelled entries.
func (m *QueueMetrics) Vetoed(ctx context.Context, n uint64) {
	if m == nil {
		return
	}
	m.vetoed.Add(ctx, int64(n))
}

// Approved records n granted approval credits.
func (m *QueueMetrics) Approved(ctx context.Context, n uint64) {
	if m == nil {
		return
	}
	m.approved.Add(ctx, int64(n))
}

// Skipped records n skipped expired entries.
func (m *QueueMetrics) Skipped(ctx context.Context, n uint64) {
	if m == nil {
		return
	}
	m.skipped.Add(ctx, int64(n))
}

// Failure records one rejected operation with its reason label.
func (m *QueueMetrics) Failure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
