package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type idempotencyDocument struct {
	Key          string    `bson:"key"`
	CallerID     string    `bson:"callerId"`
	RequestHash  string    `bson:"requestHash"`
	StatusCode   int       `bson:"statusCode"`
	ResponseBody []byte    `bson:"responseBody"`
	CreatedAt    time.Time `bson:"createdAt"`
	ExpiresAt    time.Time `bson:"expiresAt"`
}

// IdempotencyRepository relies on the TTL index on expiresAt for cleanup.
type IdempotencyRepository struct {
	coll *mongo.Collection
}

func NewIdempotencyRepository(s *Store) *IdempotencyRepository {
	return &IdempotencyRepository{coll: s.collection(idempotencyCollection)}
}

func (r *IdempotencyRepository) Find(ctx context.Context, key string, callerID uuid.UUID) (*domain.IdempotencyRecord, error) {
	var doc idempotencyDocument
	err := r.coll.FindOne(ctx, bson.M{
		"key":       key,
		"callerId":  callerID.String(),
		"expiresAt": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	return &domain.IdempotencyRecord{
		Key:          doc.Key,
		CallerID:     callerID,
		RequestHash:  doc.RequestHash,
		StatusCode:   doc.StatusCode,
		ResponseBody: doc.ResponseBody,
		CreatedAt:    doc.CreatedAt.UTC(),
		ExpiresAt:    doc.ExpiresAt.UTC(),
	}, nil
}

func (r *IdempotencyRepository) Save(ctx context.Context, rec *domain.IdempotencyRecord) error {
	_, err := r.coll.InsertOne(ctx, idempotencyDocument{
		Key:          rec.Key,
		CallerID:     rec.CallerID.String(),
		RequestHash:  rec.RequestHash,
		StatusCode:   rec.StatusCode,
		ResponseBody: rec.ResponseBody,
		CreatedAt:    rec.CreatedAt,
		ExpiresAt:    rec.ExpiresAt,
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}
