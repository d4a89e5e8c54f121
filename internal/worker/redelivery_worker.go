package worker

import (
	"context"
	"log/slog"
	"time"
)

// InviteRedeliverer resends invites whose notification was never handed off
type InviteRedeliverer interface {
	RedeliverInvites(ctx context.Context, olderThan time.Duration) (int, error)
}

// RedeliveryWorker periodically retries undelivered invite notifications.
// Invites younger than delay are skipped so a request still inside Invite is
// not raced.
type RedeliveryWorker struct {
	invites  InviteRedeliverer
	logger   *slog.Logger
	interval time.Duration
	delay    time.Duration
}

// NewRedeliveryWorker creates a new redelivery worker
func NewRedeliveryWorker(invites InviteRedeliverer, logger *slog.Logger, interval, delay time.Duration) *RedeliveryWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedeliveryWorker{
		invites:  invites,
		logger:   logger.With(slog.String("worker", "redelivery")),
		interval: interval,
		delay:    delay,
	}
}

// Start runs a pass every interval until ctx is cancelled
func (w *RedeliveryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("redelivery worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("delay", w.delay),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("redelivery worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single redelivery pass
func (w *RedeliveryWorker) RunOnce(ctx context.Context) int {
	delivered, err := w.invites.RedeliverInvites(ctx, w.delay)
	if err != nil {
		w.logger.Error("invite redelivery failed", slog.String("error", err.Error()))
		return 0
	}
	return delivered
}
