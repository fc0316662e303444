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

type balanceDocument struct {
	CurrentBalance int64 `bson:"currentBalance"`
	CurrentCredit  int64 `bson:"currentCredit"`
	MaxCredit      int64 `bson:"maxCredit"`
}

type accountDocument struct {
	UserID       string          `bson:"_id"`
	CompanyName  string          `bson:"companyName"`
	BusinessName string          `bson:"businessName"`
	VAT          string          `bson:"vat"`
	TIN          string          `bson:"tin"`
	CEOName      string          `bson:"ceoName"`
	Phone        string          `bson:"phone"`
	Email        string          `bson:"email"`
	PasswordHash string          `bson:"passwordHash"`
	Status       string          `bson:"status"`
	Role         string          `bson:"role"`
	Balance      balanceDocument `bson:"balance"`
	Version      int64           `bson:"version"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

func toAccountDocument(a *domain.Account) accountDocument {
	return accountDocument{
		UserID:       a.UserID.String(),
		CompanyName:  a.CompanyName,
		BusinessName: a.BusinessName,
		VAT:          a.VAT,
		TIN:          a.TIN,
		CEOName:      a.CEOName,
		Phone:        a.Phone,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Status:       string(a.Status),
		Role:         string(a.Role),
		Balance: balanceDocument{
			CurrentBalance: a.Balance.CurrentBalance,
			CurrentCredit:  a.Balance.CurrentCredit,
			MaxCredit:      a.Balance.MaxCredit,
		},
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (d accountDocument) toDomain() (*domain.Account, error) {
	id, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", d.UserID, err)
	}
	return &domain.Account{
		UserID:       id,
		CompanyName:  d.CompanyName,
		BusinessName: d.BusinessName,
		VAT:          d.VAT,
		TIN:          d.TIN,
		CEOName:      d.CEOName,
		Phone:        d.Phone,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Status:       domain.AccountStatus(d.Status),
		Role:         domain.Role(d.Role),
		Balance: domain.Balance{
			CurrentBalance: d.Balance.CurrentBalance,
			CurrentCredit:  d.Balance.CurrentCredit,
			MaxCredit:      d.Balance.MaxCredit,
		},
		Version:   d.Version,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(s *Store) *AccountRepository {
	return &AccountRepository{coll: s.collection(accountsCollection)}
}

func (r *AccountRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	a, err := r.findOne(ctx, bson.M{"_id": userID.String()})
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	a, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]domain.Account, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	cur, err := r.coll.Find(ctx, bson.M{}, findOptions(limit, offset, bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	var docs []accountDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("List: decode: %w", err)
	}

	accounts := make([]domain.Account, 0, len(docs))
	for _, d := range docs {
		a, err := d.toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("List: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, int(total), nil
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	if _, err := r.coll.InsertOne(ctx, toAccountDocument(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("Create: %w", domain.ErrEmailTaken)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, a *domain.Account) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": a.UserID.String(), "version": a.Version},
		bson.M{
			"$set": bson.M{
				"companyName":  a.CompanyName,
				"businessName": a.BusinessName,
				"vat":          a.VAT,
				"tin":          a.TIN,
				"ceoName":      a.CEOName,
				"phone":        a.Phone,
				"status":       string(a.Status),
				"updatedAt":    a.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("UpdateProfile: %w", domain.ErrVersionConflict)
	}
	a.Version++
	return nil
}
