package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/vendoronboard/internal/reliability/retry"
)

// Publisher appends a payload to a named queue
type Publisher interface {
	Push(ctx context.Context, key string, payload []byte) error
}

// OutboxNotifier pushes invitations as JSON onto a Redis list for a mail
// sender to consume. Each push is retried with backoff; repeated failures
// open the breaker so invites stop waiting on a dead Redis.
type OutboxNotifier struct {
	publisher Publisher
	queue     string
	breaker   *circuitbreaker.CircuitBreaker
	retryCfg  *retry.Config
	logger    *slog.Logger
}

func NewOutboxNotifier(publisher Publisher, queue string, logger *slog.Logger) *OutboxNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	breaker := circuitbreaker.NewCircuitBreaker(5, 1, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("notification breaker state changed",
			slog.String("queue", queue),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &OutboxNotifier{
		publisher: publisher,
		queue:     queue,
		breaker:   breaker,
		retryCfg:  retry.DefaultConfig(),
		logger:    logger,
	}
}

// WithRetryConfig overrides the retry policy
func (n *OutboxNotifier) WithRetryConfig(cfg *retry.Config) *OutboxNotifier {
	n.retryCfg = cfg
	return n
}

// WithBreaker overrides the circuit breaker
func (n *OutboxNotifier) WithBreaker(cb *circuitbreaker.CircuitBreaker) *OutboxNotifier {
	n.breaker = cb
	return n
}

func (n *OutboxNotifier) NotifyInvite(ctx context.Context, inv InviteNotification) error {
	payload, err := json.Marshal(struct {
		Type string `json:"type"`
		InviteNotification
	}{Type: "vendor_invite", InviteNotification: inv})
	if err != nil {
		return fmt.Errorf("failed to encode invite notification: %w", err)
	}

	return retry.Do(ctx, n.retryCfg, n.logger, "notify_invite", func(ctx context.Context) error {
		err := n.breaker.Execute(func() error {
			return n.publisher.Push(ctx, n.queue, payload)
		})
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return retry.Permanent(err)
		}
		return err
	})
}
