package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/logging"
	"github.com/josh-kwaku/corporate-ledger/internal/service"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

type balanceService interface {
	IncreaseBalance(ctx context.Context, caller domain.Caller, accountID uuid.UUID, payload validation.Payload) (*service.BalanceResult, error)
	UseBalance(ctx context.Context, caller domain.Caller, accountID uuid.UUID, payload validation.Payload) (*service.BalanceResult, error)
	GetBalanceHistory(ctx context.Context, caller domain.Caller, accountID uuid.UUID, limit, offset int) (*service.History, error)
}

type BalanceHandler struct {
	balances balanceService
}

func NewBalanceHandler(balances balanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

type balanceDTO struct {
	CurrentBalance int64 `json:"current_balance"`
	CurrentCredit  int64 `json:"current_credit"`
	MaxCredit      int64 `json:"max_credit"`
}

func toBalanceDTO(b domain.Balance) balanceDTO {
	return balanceDTO{
		CurrentBalance: b.CurrentBalance,
		CurrentCredit:  b.CurrentCredit,
		MaxCredit:      b.MaxCredit,
	}
}

type ledgerEntryDTO struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Currency    string    `json:"currency"`
	Rate        string    `json:"rate"`
	Amount      int64     `json:"amount"`
	BaseAmount  int64     `json:"base_amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type balanceChangeResponse struct {
	Entry   ledgerEntryDTO `json:"entry"`
	Balance balanceDTO     `json:"balance"`
}

type historyEntryDTO struct {
	Type        string `json:"type"`
	Currency    string `json:"currency"`
	Rate        string `json:"rate"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
}

type historyResponse struct {
	Balance balanceDTO        `json:"balance"`
	Entries []historyEntryDTO `json:"entries"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

func (h *BalanceHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.balances.IncreaseBalance)
}

func (h *BalanceHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.balances.UseBalance)
}

type changeFunc func(ctx context.Context, caller domain.Caller, accountID uuid.UUID, payload validation.Payload) (*service.BalanceResult, error)

func (h *BalanceHandler) change(w http.ResponseWriter, r *http.Request, fn changeFunc) {
	caller, accountID, appErr := callerAndTarget(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if !caller.IsAdmin() {
		RespondAppError(w, ErrUnauthorized, nil)
		return
	}

	payload, appErr := decodePayload(w, r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	res, err := fn(r.Context(), caller, accountID, payload)
	if err != nil {
		logging.FromContext(r.Context()).Warn("balance change failed", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	e := res.Entry
	RespondSuccess(w, http.StatusOK, balanceChangeResponse{
		Entry: ledgerEntryDTO{
			ID:          e.ID,
			Type:        string(e.Type),
			Currency:    string(e.Currency),
			Rate:        e.Rate.String(),
			Amount:      e.Amount,
			BaseAmount:  e.BaseAmount,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		},
		Balance: toBalanceDTO(res.Balance),
	})
}

func (h *BalanceHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, accountID, appErr := callerAndTarget(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset, fields := pagination(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	hist, err := h.balances.GetBalanceHistory(r.Context(), caller, accountID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Warn("balance history failed", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	entries := make([]historyEntryDTO, len(hist.Entries))
	for i, e := range hist.Entries {
		entries[i] = historyEntryDTO(e)
	}

	RespondSuccess(w, http.StatusOK, historyResponse{
		Balance: toBalanceDTO(hist.Balance),
		Entries: entries,
		Total:   hist.Total,
		Limit:   limit,
		Offset:  offset,
	})
}
