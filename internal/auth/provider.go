package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
)

type accountReader interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
}

// Provider turns a bearer credential into a Caller. The role comes from the
// stored account so that demotions take effect before the token expires.
type Provider struct {
	accounts accountReader
	tokens   *TokenIssuer
}

func NewProvider(accounts accountReader, tokens *TokenIssuer) *Provider {
	return &Provider{accounts: accounts, tokens: tokens}
}

func (p *Provider) ResolveCaller(ctx context.Context, credential string) (*domain.Caller, error) {
	token, found := strings.CutPrefix(credential, "Bearer ")
	if !found || token == "" {
		return nil, fmt.Errorf("ResolveCaller: malformed credential: %w", domain.ErrUnauthorized)
	}

	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("ResolveCaller: %w: %w", domain.ErrUnauthorized, err)
	}

	account, err := p.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("ResolveCaller: unknown account: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("ResolveCaller: %w", err)
	}

	if account.Status != domain.AccountStatusApproved {
		return nil, fmt.Errorf("ResolveCaller: account %s: %w", account.Status, domain.ErrUnauthorized)
	}

	return &domain.Caller{AccountID: account.UserID, Role: account.Role}, nil
}

type callerKey struct{}

func ContextWithCaller(ctx context.Context, c domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext reports the caller set by the auth middleware.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(domain.Caller)
	return c, ok
}
