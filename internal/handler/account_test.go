package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/service"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

type stubAccountService struct {
	account  *domain.Account
	accounts []domain.Account
	login    *service.LoginResult
	err      error
	called   bool
}

func (s *stubAccountService) Register(_ context.Context, _ validation.Payload) (*domain.Account, error) {
	s.called = true
	return s.account, s.err
}

func (s *stubAccountService) ListAccounts(_ context.Context, _ domain.Caller, _, _ int) ([]domain.Account, int, error) {
	s.called = true
	return s.accounts, len(s.accounts), s.err
}

func (s *stubAccountService) GetAccount(_ context.Context, _ domain.Caller, _ uuid.UUID) (*domain.Account, error) {
	s.called = true
	return s.account, s.err
}

func (s *stubAccountService) UpdateAccount(_ context.Context, _ domain.Caller, _ uuid.UUID, _ validation.Payload) (*domain.Account, error) {
	s.called = true
	return s.account, s.err
}

func (s *stubAccountService) Login(_ context.Context, _ validation.Payload) (*service.LoginResult, error) {
	s.called = true
	return s.login, s.err
}

func testAccount() *domain.Account {
	return &domain.Account{
		UserID:       uuid.New(),
		CompanyName:  "Acme Travel",
		Email:        "ops@acme.example.com",
		PasswordHash: "$2a$10$secret",
		Status:       domain.AccountStatusApproved,
		Role:         domain.RoleUser,
		Balance:      domain.Balance{MaxCredit: 50_000},
		CreatedAt:    time.Now().UTC(),
	}
}

func accountMux(svc *stubAccountService) *http.ServeMux {
	accounts := NewAccountHandler(svc)
	authH := NewAuthHandler(svc)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/accounts", accounts.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authH.Login)
	mux.HandleFunc("GET /api/v1/admin/accounts", accounts.List)
	mux.HandleFunc("GET /api/v1/admin/accounts/{id}", accounts.Get)
	mux.HandleFunc("PATCH /api/v1/admin/accounts/{id}", accounts.Update)
	return mux
}

func TestAccountHandler_Register(t *testing.T) {
	svc := &stubAccountService{account: testAccount()}

	rec, resp := serve(accountMux(svc), newRequest(t, http.MethodPost, "/api/v1/accounts", `{"email":"ops@acme.example.com"}`, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "ops@acme.example.com", data["email"])
	assert.NotContains(t, rec.Body.String(), "secret", "password hash never leaves the server")
}

func TestAccountHandler_RegisterEmailTaken(t *testing.T) {
	svc := &stubAccountService{err: fmt.Errorf("Register: %w", domain.ErrEmailTaken)}

	rec, resp := serve(accountMux(svc), newRequest(t, http.MethodPost, "/api/v1/accounts", `{}`, nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", resp.Error.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		svc        *stubAccountService
		wantStatus int
		wantCode   string
	}{
		{"success", &stubAccountService{login: &service.LoginResult{Token: "tok", Account: testAccount()}}, http.StatusOK, ""},
		{"bad credentials", &stubAccountService{err: domain.ErrInvalidCredentials}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"not approved", &stubAccountService{err: domain.ErrAccountNotApproved}, http.StatusForbidden, "ACCOUNT_NOT_APPROVED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := serve(accountMux(tt.svc), newRequest(t, http.MethodPost, "/api/v1/auth/login",
				`{"email":"ops@acme.example.com","password":"Secret123!"}`, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode == "" {
				data := resp.Data.(map[string]any)
				assert.Equal(t, "tok", data["token"])
				return
			}
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestAccountHandler_AdminRoutes(t *testing.T) {
	account := testAccount()
	svc := &stubAccountService{account: account, accounts: []domain.Account{*account}}
	mux := accountMux(svc)

	rec, resp := serve(mux, newRequest(t, http.MethodGet, "/api/v1/admin/accounts?limit=10", "", &testAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(10), data["limit"])

	rec, _ = serve(mux, newRequest(t, http.MethodGet, "/api/v1/admin/accounts/"+account.UserID.String(), "", &testAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(mux, newRequest(t, http.MethodPatch, "/api/v1/admin/accounts/"+account.UserID.String(), `{"status":"approved"}`, &testAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountHandler_AdminRoutesRequireCaller(t *testing.T) {
	svc := &stubAccountService{}
	mux := accountMux(svc)

	rec, resp := serve(mux, newRequest(t, http.MethodGet, "/api/v1/admin/accounts", "", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "MISSING_TOKEN", resp.Error.Code)
	assert.False(t, svc.called)
}

func TestAccountHandler_UpdateNothingPermitted(t *testing.T) {
	svc := &stubAccountService{err: fmt.Errorf("UpdateAccount: %w", domain.ErrInvalidRequest)}

	rec, resp := serve(accountMux(svc), newRequest(t, http.MethodPatch, "/api/v1/admin/accounts/"+uuid.NewString(), `{"maxCredit":1}`, &testAdmin))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}
