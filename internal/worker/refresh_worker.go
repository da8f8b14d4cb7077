// Package worker keeps the stored snapshots current by refetching records on
// a schedule and whenever a refresh message arrives.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"moneymanager/internal/amqp"
	"moneymanager/internal/core"
	"moneymanager/internal/log"
	"moneymanager/internal/source"
)

// Refresher refetches one kind and stores its snapshot.
type Refresher interface {
	Refresh(ctx context.Context, kind core.Kind) (int, error)
}

type RefreshWorker struct {
	refresher Refresher
	interval  time.Duration
	logger    *log.Logger
	now       func() time.Time

	mu          sync.Mutex
	lastRefresh map[core.Kind]time.Time
}

func NewRefreshWorker(r Refresher, interval time.Duration, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &RefreshWorker{
		refresher:   r,
		interval:    interval,
		logger:      logger.WithComponent(log.ComponentWorker),
		now:         time.Now,
		lastRefresh: map[core.Kind]time.Time{},
	}
}

// HandleRefreshMessage refreshes the kinds named by msg. Requests issued
// before the last successful refresh of a kind are already satisfied and
// skipped. Fetch failures are logged, not returned, so the message is not
// requeued; the next scheduled pass retries.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshMessage) error {
	for _, kind := range msg.Kinds() {
		if w.satisfied(kind, msg.RequestedAt) {
			w.logger.DebugContext(ctx, "Refresh already satisfied",
				log.FieldKind, kind, "requested_at", msg.RequestedAt)
			continue
		}
		w.refresh(ctx, kind, msg.Reason)
	}
	return nil
}

// Run refreshes both kinds immediately and then every interval until ctx is
// done. A non-positive interval disables the schedule after the first pass.
func (w *RefreshWorker) Run(ctx context.Context) {
	w.refreshAll(ctx, amqp.ReasonScheduled)
	if w.interval <= 0 {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refreshAll(ctx, amqp.ReasonScheduled)
		}
	}
}

func (w *RefreshWorker) refreshAll(ctx context.Context, reason string) {
	for _, kind := range []core.Kind{core.Income, core.Expense} {
		if ctx.Err() != nil {
			return
		}
		w.refresh(ctx, kind, reason)
	}
}

func (w *RefreshWorker) refresh(ctx context.Context, kind core.Kind, reason string) {
	started := w.now()
	n, err := w.refresher.Refresh(ctx, kind)
	if err != nil {
		errType := log.ErrorTypeNetwork
		if source.IsAuth(err) {
			errType = log.ErrorTypeAuth
		}
		w.logger.Event(ctx, slog.LevelWarn, "Refresh failed", log.NewFields().
			WithKind(kind.String()).
			WithOperation(log.OpRefresh).
			With("reason", reason).
			WithError(err, errType))
		return
	}

	w.mu.Lock()
	w.lastRefresh[kind] = started
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Snapshot refreshed",
		log.FieldKind, kind,
		log.FieldRecords, n,
		"reason", reason,
		log.FieldDuration, w.now().Sub(started).Milliseconds())
}

func (w *RefreshWorker) satisfied(kind core.Kind, requestedAt time.Time) bool {
	if requestedAt.IsZero() {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.lastRefresh[kind]
	return ok && requestedAt.Before(last)
}
