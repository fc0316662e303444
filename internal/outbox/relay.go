package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/events"
)

type messageStore interface {
	GetPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordAttempt(ctx context.Context, id uuid.UUID) error
}

// Relay forwards pending outbox messages to a publisher. Delivery is at least
// once: a message published but not marked sent goes out again next poll.
type Relay struct {
	store     messageStore
	publisher events.Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewRelay(store messageStore, publisher events.Publisher, logger *slog.Logger, interval time.Duration, batchSize int) *Relay {
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Start polls until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

// poll returns the number of messages delivered.
func (r *Relay) poll(ctx context.Context) int {
	msgs, err := r.store.GetPending(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch pending outbox messages", "error", err)
		return 0
	}

	sent := 0
	for _, msg := range msgs {
		if ctx.Err() != nil {
			break
		}
		if err := r.publisher.Publish(ctx, msg); err != nil {
			r.logger.Error("failed to publish outbox message",
				"message_id", msg.ID,
				"attempts", msg.Attempts+1,
				"error", err,
			)
			if err := r.store.RecordAttempt(ctx, msg.ID); err != nil {
				r.logger.Error("failed to record outbox attempt", "message_id", msg.ID, "error", err)
			}
			continue
		}
		if err := r.store.MarkSent(ctx, msg.ID, r.now().UTC()); err != nil {
			r.logger.Error("failed to mark outbox message sent", "message_id", msg.ID, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		r.logger.Debug("outbox messages relayed", "count", sent)
	}
	return sent
}
