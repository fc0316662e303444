package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/corporate-ledger/internal/auth"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/logging"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

type accountService interface {
	Register(ctx context.Context, payload validation.Payload) (*domain.Account, error)
	ListAccounts(ctx context.Context, caller domain.Caller, limit, offset int) ([]domain.Account, int, error)
	GetAccount(ctx context.Context, caller domain.Caller, id uuid.UUID) (*domain.Account, error)
	UpdateAccount(ctx context.Context, caller domain.Caller, id uuid.UUID, payload validation.Payload) (*domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountDTO struct {
	ID           uuid.UUID  `json:"id"`
	CompanyName  string     `json:"company_name"`
	BusinessName string     `json:"business_name"`
	VAT          string     `json:"vat"`
	TIN          string     `json:"tin"`
	CEOName      string     `json:"ceo_name"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
	Status       string     `json:"status"`
	Role         string     `json:"role"`
	Balance      balanceDTO `json:"balance"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:           a.UserID,
		CompanyName:  a.CompanyName,
		BusinessName: a.BusinessName,
		VAT:          a.VAT,
		TIN:          a.TIN,
		CEOName:      a.CEOName,
		Phone:        a.Phone,
		Email:        a.Email,
		Status:       string(a.Status),
		Role:         string(a.Role),
		Balance:      toBalanceDTO(a.Balance),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

type accountListResponse struct {
	Accounts []accountDTO `json:"accounts"`
	Total    int          `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	payload, appErr := decodePayload(w, r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.Register(r.Context(), payload)
	if err != nil {
		logging.FromContext(r.Context()).Warn("registration failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset, fields := pagination(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	accounts, total, err := h.accounts.ListAccounts(r.Context(), caller, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}

	RespondSuccess(w, http.StatusOK, accountListResponse{
		Accounts: dtos,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, id, appErr := callerAndTarget(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), caller, id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("failed to get account", "account_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, id, appErr := callerAndTarget(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	payload, appErr := decodePayload(w, r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.UpdateAccount(r.Context(), caller, id, payload)
	if err != nil {
		logging.FromContext(r.Context()).Warn("failed to update account", "account_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}
