package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/logging"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

type tokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type AccountConfig struct {
	DefaultMaxCredit int64
	BcryptCost       int
}

type LoginResult struct {
	Token   string
	Account *domain.Account
}

type AccountService struct {
	accounts accountStore
	schemas  schemaSource
	tokens   tokenIssuer
	cfg      AccountConfig
	now      func() time.Time
}

func NewAccountService(accounts accountStore, schemas schemaSource, tokens tokenIssuer, cfg AccountConfig) *AccountService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{accounts: accounts, schemas: schemas, tokens: tokens, cfg: cfg, now: time.Now}
}

// Register creates an unverified company account with an empty balance and
// the default credit line.
func (s *AccountService) Register(ctx context.Context, payload validation.Payload) (*domain.Account, error) {
	schema, err := s.schemas.Schema(validation.SchemaRegistration, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}
	if _, err := validation.Validate(schema, payload); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	field := func(name string) string {
		v, _ := payload.String(name)
		return strings.TrimSpace(v)
	}

	password, _ := payload.String("password")
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash password: %w", err)
	}

	now := s.now().UTC()
	account := &domain.Account{
		UserID:       uuid.New(),
		CompanyName:  field("companyName"),
		BusinessName: field("businessName"),
		VAT:          field("vat"),
		TIN:          field("tin"),
		CEOName:      field("ceoName"),
		Phone:        field("phone"),
		Email:        normalizeEmail(field("email")),
		PasswordHash: string(hash),
		Status:       domain.AccountStatusNotVerified,
		Role:         domain.RoleUser,
		Balance:      domain.Balance{MaxCredit: s.cfg.DefaultMaxCredit},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("Register: %w", storeErr(err))
	}

	logging.FromContext(ctx).Info("account registered", "account_id", account.UserID)
	return account, nil
}

func (s *AccountService) Login(ctx context.Context, payload validation.Payload) (*LoginResult, error) {
	schema, err := s.schemas.Schema(validation.SchemaLogin, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	if _, err := validation.Validate(schema, payload); err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}

	email, _ := payload.String("email")
	password, _ := payload.String("password")

	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Login: %w", storeErr(err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}
	if account.Status != domain.AccountStatusApproved {
		return nil, fmt.Errorf("Login: status %s: %w", account.Status, domain.ErrAccountNotApproved)
	}

	token, err := s.tokens.Issue(account.UserID)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	return &LoginResult{Token: token, Account: account}, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, caller domain.Caller, limit, offset int) ([]domain.Account, int, error) {
	if !caller.IsAdmin() {
		return nil, 0, fmt.Errorf("ListAccounts: %w", domain.ErrUnauthorized)
	}
	if limit < 0 || offset < 0 {
		return nil, 0, fmt.Errorf("ListAccounts: negative limit or offset: %w", domain.ErrInvalidRequest)
	}
	accounts, total, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListAccounts: %w", storeErr(err))
	}
	return accounts, total, nil
}

// GetAccount is open to admins and to the account owner.
func (s *AccountService) GetAccount(ctx context.Context, caller domain.Caller, id uuid.UUID) (*domain.Account, error) {
	if !caller.IsAdmin() && caller.AccountID != id {
		return nil, fmt.Errorf("GetAccount: %w", domain.ErrUnauthorized)
	}
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", storeErr(err))
	}
	return account, nil
}

// UpdateAccount applies the profile fields present in payload that the
// caller's role may edit. Balance fields are never editable here.
func (s *AccountService) UpdateAccount(ctx context.Context, caller domain.Caller, id uuid.UUID, payload validation.Payload) (*domain.Account, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("UpdateAccount: %w", domain.ErrUnauthorized)
	}

	schema, err := s.schemas.Permitted(validation.SchemaAccountUpdate, caller.Role, payload)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}
	if _, err := validation.Validate(schema, payload); err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}

	profile, err := profileFromPayload(schema.Fields(), payload)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", storeErr(err))
	}
	profile.ApplyTo(account)
	account.UpdatedAt = s.now().UTC()

	if err := s.accounts.UpdateProfile(ctx, account); err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", storeErr(err))
	}

	logging.FromContext(ctx).Info("account updated",
		"account_id", id,
		"fields", schema.Fields(),
		"by", caller.AccountID,
	)
	return account, nil
}

func profileFromPayload(fields []string, payload validation.Payload) (domain.AccountProfile, error) {
	var p domain.AccountProfile
	for _, f := range fields {
		v, _ := payload.String(f)
		v = strings.TrimSpace(v)
		switch f {
		case "companyName":
			p.CompanyName = &v
		case "businessName":
			p.BusinessName = &v
		case "vat":
			p.VAT = &v
		case "tin":
			p.TIN = &v
		case "ceoName":
			p.CEOName = &v
		case "phone":
			p.Phone = &v
		case "status":
			status := domain.AccountStatus(v)
			if !status.IsValid() {
				return p, validation.FieldFailure("status",
					"Status must be one of notVerified, verified, approved, rejected, deleted")
			}
			p.Status = &status
		}
	}
	return p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
