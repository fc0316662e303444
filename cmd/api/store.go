package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/corporate-ledger/internal/config"
	"github.com/josh-kwaku/corporate-ledger/internal/docstore"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/handler"
	"github.com/josh-kwaku/corporate-ledger/internal/repository"
)

type accountStore interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]domain.Account, int, error)
	Create(ctx context.Context, account *domain.Account) error
	UpdateProfile(ctx context.Context, account *domain.Account) error
}

type ledgerStore interface {
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type executor interface {
	CommitBalanceChange(ctx context.Context, change *domain.BalanceChange) error
}

type outboxStore interface {
	GetPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordAttempt(ctx context.Context, id uuid.UUID) error
}

type idempotencyStore interface {
	Find(ctx context.Context, key string, callerID uuid.UUID) (*domain.IdempotencyRecord, error)
	Save(ctx context.Context, rec *domain.IdempotencyRecord) error
}

// backend is one storage driver's set of repositories.
type backend struct {
	accounts    accountStore
	ledger      ledgerStore
	executor    executor
	outbox      outboxStore
	idempotency idempotencyStore
	ping        handler.PingFunc
	// sweep deletes expired idempotency records when the store has no TTL.
	sweep func(ctx context.Context) (int64, error)
	close func(ctx context.Context) error
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	default:
		return openPostgres(ctx, cfg)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*backend, error) {
	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}, 30)
	if err != nil {
		return nil, fmt.Errorf("openPostgres: %w", err)
	}

	if err := repository.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("openPostgres: %w", err)
	}
	slog.Info("database migrations applied", "source", cfg.MigrationsPath)

	db := repository.NewDB(pool)
	accounts := repository.NewAccountRepository(pool)
	ledger := repository.NewLedgerRepository(pool)
	outbox := repository.NewOutboxRepository(pool)
	idem := repository.NewIdempotencyRepository(pool)

	return &backend{
		accounts:    accounts,
		ledger:      ledger,
		executor:    repository.NewLedgerExecutor(db, accounts, ledger, outbox),
		outbox:      outbox,
		idempotency: idem,
		ping:        db.Ping,
		sweep:       idem.DeleteExpired,
		close:       func(context.Context) error { return pool.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config) (*backend, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := docstore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("openMongo: %w", err)
	}
	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("openMongo: %w", err)
	}
	slog.Info("mongo indexes ensured", "database", cfg.MongoDatabase)

	return &backend{
		accounts:    docstore.NewAccountRepository(store),
		ledger:      docstore.NewLedgerRepository(store),
		executor:    docstore.NewLedgerExecutor(store),
		outbox:      docstore.NewOutboxRepository(store),
		idempotency: docstore.NewIdempotencyRepository(store),
		ping:        store.Ping,
		close:       store.Close,
	}, nil
}
