package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type outboxDocument struct {
	ID          string     `bson:"_id"`
	AggregateID string     `bson:"aggregateId"`
	EventType   string     `bson:"eventType"`
	Payload     string     `bson:"payload"`
	Status      string     `bson:"status"`
	Attempts    int        `bson:"attempts"`
	CreatedAt   time.Time  `bson:"createdAt"`
	SentAt      *time.Time `bson:"sentAt,omitempty"`
}

func toOutboxDocument(m *domain.OutboxMessage) outboxDocument {
	return outboxDocument{
		ID:          m.ID.String(),
		AggregateID: m.AggregateID.String(),
		EventType:   m.EventType,
		Payload:     string(m.Payload),
		Status:      string(m.Status),
		Attempts:    m.Attempts,
		CreatedAt:   m.CreatedAt,
		SentAt:      m.SentAt,
	}
}

func (d outboxDocument) toDomain() (*domain.OutboxMessage, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("outbox %q: %w", d.ID, err)
	}
	aggregateID, err := uuid.Parse(d.AggregateID)
	if err != nil {
		return nil, fmt.Errorf("outbox %q: aggregate: %w", d.ID, err)
	}
	return &domain.OutboxMessage{
		ID:          id,
		AggregateID: aggregateID,
		EventType:   d.EventType,
		Payload:     []byte(d.Payload),
		Status:      domain.OutboxStatus(d.Status),
		Attempts:    d.Attempts,
		CreatedAt:   d.CreatedAt.UTC(),
		SentAt:      d.SentAt,
	}, nil
}

type OutboxRepository struct {
	coll *mongo.Collection
}

func NewOutboxRepository(s *Store) *OutboxRepository {
	return &OutboxRepository{coll: s.collection(outboxCollection)}
}

func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"status": string(domain.OutboxStatusPending)}, opts)
	if err != nil {
		return nil, fmt.Errorf("GetPending: %w", err)
	}
	var docs []outboxDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("GetPending: decode: %w", err)
	}

	messages := make([]domain.OutboxMessage, 0, len(docs))
	for _, d := range docs {
		m, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("GetPending: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.coll.UpdateByID(ctx, id.String(), bson.M{
		"$set": bson.M{"status": string(domain.OutboxStatusSent), "sentAt": at},
		"$inc": bson.M{"attempts": 1},
	})
	if err != nil {
		return fmt.Errorf("MarkSent: %w", err)
	}
	return nil
}

func (r *OutboxRepository) RecordAttempt(ctx context.Context, id uuid.UUID) error {
	_, err := r.coll.UpdateByID(ctx, id.String(), bson.M{"$inc": bson.M{"attempts": 1}})
	if err != nil {
		return fmt.Errorf("RecordAttempt: %w", err)
	}
	return nil
}
