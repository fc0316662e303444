package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/fx"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

type accountReader interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
}

type accountStore interface {
	accountReader
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]domain.Account, int, error)
	Create(ctx context.Context, account *domain.Account) error
	UpdateProfile(ctx context.Context, account *domain.Account) error
}

type ledgerReader interface {
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type balanceExecutor interface {
	CommitBalanceChange(ctx context.Context, change *domain.BalanceChange) error
}

type schemaSource interface {
	Schema(name string, role domain.Role) (validation.Schema, error)
	Permitted(name string, role domain.Role, payload validation.Payload) (validation.Schema, error)
}

type rateConverter interface {
	Convert(code domain.Currency, amount int64) (*fx.Conversion, error)
}
