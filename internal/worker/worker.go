// Package worker drains the stored webhook event queue. The HTTP handler only
// persists and enqueues; everything that talks to the gateway happens here,
// with bounded retries and a periodic sweep that picks up events the in-memory
// queue lost across restarts.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maviecommerce/mavie/internal/db"
	"github.com/maviecommerce/mavie/internal/models"
)

const (
	// MaxAttempts is the retry ceiling per event. Beyond it the event is left
	// for the operator alert instead of being retried forever.
	MaxAttempts = 5

	defaultQueueSize   = 256
	defaultWorkerCount = 4

	sweepInterval = time.Hour
	sweepMinAge   = 5 * time.Minute
	sweepBatch    = 100

	pruneInterval  = 24 * time.Hour
	pruneRetention = 30 * 24 * time.Hour
)

// EventProcessor runs one event through the reconciliation pipeline.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event *models.PaystackEvent) error
}

// OperatorNotifier reports events that exhausted their retries.
type OperatorNotifier interface {
	NotifyExhaustedEvents(ctx context.Context, events []*models.PaystackEvent) error
}

// Worker owns the in-process queue and the background loops.
type Worker struct {
	events    *db.EventStore
	processor EventProcessor
	notifier  OperatorNotifier
	logger    *slog.Logger

	workers int
	queue   chan uuid.UUID
	wg      sync.WaitGroup

	// alerted tracks event ids already reported to the operator so the
	// hourly sweep does not repeat the same page.
	mu      sync.Mutex
	alerted map[uuid.UUID]bool
}

func New(events *db.EventStore, processor EventProcessor, notifier OperatorNotifier, workers, queueSize int, logger *slog.Logger) *Worker {
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Worker{
		events:    events,
		processor: processor,
		notifier:  notifier,
		logger:    logger,
		workers:   workers,
		queue:     make(chan uuid.UUID, queueSize),
		alerted:   make(map[uuid.UUID]bool),
	}
}

// Enqueue hands an event to the worker pool without blocking the caller. A
// full queue is fine: the sweep finds the event later.
func (w *Worker) Enqueue(eventID uuid.UUID) {
	select {
	case w.queue <- eventID:
	default:
		w.logger.Warn("event queue full, deferring to sweep", "event_id", eventID)
	}
}

// Run starts the worker pool and the maintenance loops, then blocks until ctx
// is cancelled and all workers have drained.
func (w *Worker) Run(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.consume(ctx)
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.sweepLoop(ctx)
	}()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pruneLoop(ctx)
	}()

	<-ctx.Done()
	w.wg.Wait()
}

func (w *Worker) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case eventID := <-w.queue:
			w.process(ctx, eventID)
		}
	}
}

func (w *Worker) process(ctx context.Context, eventID uuid.UUID) {
	event, err := w.events.GetByID(ctx, eventID)
	if errors.Is(err, pgx.ErrNoRows) {
		return
	}
	if err != nil {
		w.logger.Error("failed to load queued event", "error", err, "event_id", eventID)
		return
	}
	if event.Processed {
		return
	}
	if event.ProcessingAttempts >= MaxAttempts {
		w.logger.Warn("event exhausted its retries", "event_id", event.EventID, "attempts", event.ProcessingAttempts)
		return
	}

	if err := w.processor.ProcessEvent(ctx, event); err != nil {
		// The attempt counter was bumped by the claim inside ProcessEvent.
		delay := backoffDelay(event.ProcessingAttempts + 1)
		w.logger.Warn("event failed, scheduling retry",
			"event_id", event.EventID, "attempt", event.ProcessingAttempts+1, "delay", delay)
		time.AfterFunc(delay, func() { w.Enqueue(eventID) })
	}
}

// backoffDelay grows exponentially per attempt: 1m, 2m, 4m, 8m, capped at 15m.
func backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := time.Minute << (attempt - 1)
	if delay > 15*time.Minute {
		delay = 15 * time.Minute
	}
	return delay
}

func (w *Worker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.SweepOnce(ctx); err != nil {
				w.logger.Error("event sweep failed", "error", err)
				sentry.CaptureException(fmt.Errorf("event sweep failed: %w", err))
			}
		}
	}
}

// SweepOnce requeues unprocessed events below the attempt ceiling and alerts
// the operator about exhausted ones. The minimum age keeps the sweep from
// racing events still in the queue.
func (w *Worker) SweepOnce(ctx context.Context) error {
	pending, err := w.events.ListUnprocessed(ctx, MaxAttempts, sweepMinAge, sweepBatch)
	if err != nil {
		return fmt.Errorf("failed to list unprocessed events: %w", err)
	}
	for _, event := range pending {
		w.Enqueue(event.ID)
	}
	if len(pending) > 0 {
		w.logger.Info("requeued unprocessed events", "count", len(pending))
	}

	exhausted, err := w.events.ListExhausted(ctx, MaxAttempts, sweepBatch)
	if err != nil {
		return fmt.Errorf("failed to list exhausted events: %w", err)
	}
	fresh := w.filterUnalerted(exhausted)
	if len(fresh) == 0 {
		return nil
	}

	w.logger.Error("events exhausted their retries", "count", len(fresh))
	sentry.CaptureException(fmt.Errorf("%d webhook events exhausted their retries", len(fresh)))
	if w.notifier != nil {
		if err := w.notifier.NotifyExhaustedEvents(ctx, fresh); err != nil {
			w.logger.Error("failed to notify operator", "error", err)
		}
	}
	return nil
}

func (w *Worker) filterUnalerted(events []*models.PaystackEvent) []*models.PaystackEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	var fresh []*models.PaystackEvent
	for _, event := range events {
		if w.alerted[event.ID] {
			continue
		}
		w.alerted[event.ID] = true
		fresh = append(fresh, event)
	}
	return fresh
}

func (w *Worker) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := w.events.PruneProcessed(ctx, pruneRetention)
			if err != nil {
				w.logger.Error("event prune failed", "error", err)
				continue
			}
			if pruned > 0 {
				w.logger.Info("pruned processed events", "count", pruned)
			}
		}
	}
}
