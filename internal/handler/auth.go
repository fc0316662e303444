package handler

import (
	"context"
	"net/http"

	"github.com/josh-kwaku/corporate-ledger/internal/logging"
	"github.com/josh-kwaku/corporate-ledger/internal/service"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

type loginService interface {
	Login(ctx context.Context, payload validation.Payload) (*service.LoginResult, error)
}

type AuthHandler struct {
	accounts loginService
}

func NewAuthHandler(accounts loginService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type loginResponse struct {
	Token   string     `json:"token"`
	Account accountDTO `json:"account"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	payload, appErr := decodePayload(w, r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	res, err := h.accounts.Login(r.Context(), payload)
	if err != nil {
		logging.FromContext(r.Context()).Info("login rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token:   res.Token,
		Account: toAccountDTO(res.Account),
	})
}
