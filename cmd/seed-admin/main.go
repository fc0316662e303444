// Command seed-admin creates the first approved administrator so that the
// admin endpoints can be used on a fresh deployment.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/corporate-ledger/internal/config"
	"github.com/josh-kwaku/corporate-ledger/internal/docstore"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/logging"
	"github.com/josh-kwaku/corporate-ledger/internal/repository"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

type seedConfig struct {
	StoreDriver    string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`
	MongoURI       string `env:"MONGO_URI"`
	MongoDatabase  string `env:"MONGO_DATABASE" envDefault:"ledger"`

	Email       string `env:"ADMIN_EMAIL,required,notEmpty"`
	Password    string `env:"ADMIN_PASSWORD,required,notEmpty"`
	CompanyName string `env:"ADMIN_COMPANY_NAME" envDefault:"Ledger Operations"`
	Phone       string `env:"ADMIN_PHONE" envDefault:"+10000000000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
}

type accountWriter interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := env.ParseAs[seedConfig]()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init("seed-admin", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	accounts, closeStore, err := openAccounts(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	account, err := newAdmin(cfg)
	if err != nil {
		return err
	}

	existing, err := accounts.GetByEmail(ctx, account.Email)
	switch {
	case err == nil:
		slog.Info("admin already exists", "account_id", existing.UserID, "role", existing.Role, "status", existing.Status)
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("look up admin: %w", err)
	}

	if err := accounts.Create(ctx, account); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	slog.Info("admin created", "account_id", account.UserID, "email", account.Email)
	return nil
}

// newAdmin builds the account after checking the credentials against the
// same rules registration applies.
func newAdmin(cfg seedConfig) (*domain.Account, error) {
	registry, err := validation.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	schema, err := registry.Schema(validation.SchemaRegistration, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("registration schema: %w", err)
	}
	payload := validation.Payload{
		"companyName":  cfg.CompanyName,
		"businessName": cfg.CompanyName,
		"vat":          "none",
		"tin":          "none",
		"ceoName":      cfg.CompanyName,
		"phone":        cfg.Phone,
		"email":        cfg.Email,
		"password":     cfg.Password,
	}
	if _, err := validation.Validate(schema, payload); err != nil {
		return nil, fmt.Errorf("admin settings: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	return &domain.Account{
		UserID:       uuid.New(),
		CompanyName:  cfg.CompanyName,
		BusinessName: cfg.CompanyName,
		VAT:          "none",
		TIN:          "none",
		CEOName:      cfg.CompanyName,
		Phone:        cfg.Phone,
		Email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		PasswordHash: string(hash),
		Status:       domain.AccountStatusApproved,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func openAccounts(ctx context.Context, cfg seedConfig) (accountWriter, func(), error) {
	if cfg.StoreDriver == config.DriverMongo {
		store, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return docstore.NewAccountRepository(store), func() { _ = store.Close(context.Background()) }, nil
	}

	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1}, 30)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := repository.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repository.NewAccountRepository(pool), func() { pool.Close() }, nil
}
