// Package worker drains the notification queue into a dispatcher.
package worker

import (
	"context"
	"time"

	"github.com/okian/pwnwatch/internal/adapters/mq/queue"
	"github.com/okian/pwnwatch/internal/domain/dedupe"
	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/okian/pwnwatch/pkg/metrics"
)

// Item is what the worker hands to the dispatcher.
type Item = queue.Item

// Dispatcher delivers one notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, it Item) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, it Item) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, it Item) error { return f(ctx, it) }

// Drainer is the part of the queue the worker needs.
type Drainer interface {
	Drain(ctx context.Context) []Item
}

// Report summarizes one drain.
type Report struct {
	// Delivered lists items the dispatcher accepted, in hand-off order.
	Delivered []Item
	// Failed counts items the dispatcher rejected. They are not retried.
	Failed int
	// Suppressed counts items whose key was already handed off.
	Suppressed int
}

// Worker hands each drained item to the dispatcher exactly once, in order.
type Worker struct {
	queue      Drainer
	dispatcher Dispatcher
	ledger     dedupe.Ledger
	name       string
	logger     logger.Logger
}

// New creates a Worker.
func New(q Drainer, d Dispatcher, opts ...Option) *Worker {
	w := &Worker{
		queue:      q,
		dispatcher: d,
		ledger:     dedupe.NewInMemoryLedger(),
		name:       "dispatch",
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Flush drains the queue and dispatches every item. The queue is empty
// afterwards whatever the outcome. Dispatch runs detached from ctx
// cancellation: drained items already had their watermark advanced, so
// abandoning them would lose them silently.
func (w *Worker) Flush(ctx context.Context) Report {
	items := w.queue.Drain(ctx)
	var rep Report
	if len(items) == 0 {
		return rep
	}

	dctx := context.WithoutCancel(ctx)
	for _, it := range items {
		key := it.Key.String()
		if w.ledger.MarkSent(dctx, key) {
			rep.Suppressed++
			metrics.RecordNotificationSuppressed()
			w.logger.Warn(dctx, "notification already dispatched", logger.String("key", key))
			continue
		}

		start := time.Now()
		if err := w.dispatcher.Dispatch(dctx, it); err != nil {
			rep.Failed++
			metrics.RecordNotificationFailed()
			w.logger.Error(dctx, "dispatch failed",
				logger.String("worker", w.name),
				logger.String("key", key),
				logger.Int64("member_id", it.MemberID),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordNotificationDispatched(time.Since(start))
		rep.Delivered = append(rep.Delivered, it)
	}

	w.logger.Info(ctx, "queue flushed",
		logger.String("worker", w.name),
		logger.Int("delivered", len(rep.Delivered)),
		logger.Int("failed", rep.Failed),
		logger.Int("suppressed", rep.Suppressed),
	)
	return rep
}
