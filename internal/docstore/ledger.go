package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ledgerDocument struct {
	ID            string    `bson:"_id"`
	UserID        string    `bson:"userId"`
	Type          string    `bson:"type,omitempty"`
	Currency      string    `bson:"currency"`
	Rate          string    `bson:"rate,omitempty"`
	Amount        int64     `bson:"amount,omitempty"`
	BaseAmount    int64     `bson:"baseAmount"`
	BalanceBefore int64     `bson:"balanceBefore"`
	BalanceAfter  int64     `bson:"balanceAfter"`
	CreditBefore  int64     `bson:"creditBefore"`
	CreditAfter   int64     `bson:"creditAfter"`
	Description   string    `bson:"description,omitempty"`
	CreatedAt     time.Time `bson:"createdAt,omitempty"`
}

func toLedgerDocument(e *domain.LedgerEntry) ledgerDocument {
	return ledgerDocument{
		ID:            e.ID.String(),
		UserID:        e.UserID.String(),
		Type:          string(e.Type),
		Currency:      string(e.Currency),
		Rate:          e.Rate.String(),
		Amount:        e.Amount,
		BaseAmount:    e.BaseAmount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		CreditBefore:  e.CreditBefore,
		CreditAfter:   e.CreditAfter,
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}
}

// toDomain tolerates documents written without optional fields; they decode
// to zero values.
func (d ledgerDocument) toDomain() (*domain.LedgerEntry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("entry %q: user: %w", d.ID, err)
	}
	rate := decimal.Zero
	if d.Rate != "" {
		if rate, err = decimal.NewFromString(d.Rate); err != nil {
			return nil, fmt.Errorf("entry %q: rate: %w", d.ID, err)
		}
	}
	e := &domain.LedgerEntry{
		ID:            id,
		UserID:        userID,
		Type:          domain.EntryType(d.Type),
		Currency:      domain.Currency(d.Currency),
		Rate:          rate,
		Amount:        d.Amount,
		BaseAmount:    d.BaseAmount,
		BalanceBefore: d.BalanceBefore,
		BalanceAfter:  d.BalanceAfter,
		CreditBefore:  d.CreditBefore,
		CreditAfter:   d.CreditAfter,
		Description:   d.Description,
	}
	if !d.CreatedAt.IsZero() {
		e.CreatedAt = d.CreatedAt.UTC()
	}
	return e, nil
}

type LedgerRepository struct {
	coll *mongo.Collection
}

func NewLedgerRepository(s *Store) *LedgerRepository {
	return &LedgerRepository{coll: s.collection(ledgerCollection)}
}

func (r *LedgerRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	filter := bson.M{"userId": userID.String()}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUserID: count: %w", err)
	}

	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	cur, err := r.coll.Find(ctx, filter, findOptions(limit, offset, sort))
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUserID: %w", err)
	}
	var docs []ledgerDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("ListByUserID: decode: %w", err)
	}

	entries := make([]domain.LedgerEntry, 0, len(docs))
	for _, d := range docs {
		e, err := d.toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("ListByUserID: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, int(total), nil
}
