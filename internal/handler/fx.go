package handler

import (
	"net/http"
	"time"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/fx"
)

type rateLister interface {
	Rates() []fx.Rate
}

type FXHandler struct {
	rates rateLister
}

func NewFXHandler(rates rateLister) *FXHandler {
	return &FXHandler{rates: rates}
}

type fxRateDTO struct {
	Currency string `json:"currency"`
	Rate     string `json:"rate"`
}

type fxRatesResponse struct {
	Base      string      `json:"base"`
	Rates     []fxRateDTO `json:"rates"`
	Timestamp string      `json:"timestamp"`
}

// ListRates reports the conversion rate of every supported currency into
// the base currency.
func (h *FXHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	rates := h.rates.Rates()
	dtos := make([]fxRateDTO, len(rates))
	for i, rate := range rates {
		dtos[i] = fxRateDTO{Currency: string(rate.Currency), Rate: rate.Rate}
	}

	RespondSuccess(w, http.StatusOK, fxRatesResponse{
		Base:      string(domain.BaseCurrency),
		Rates:     dtos,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
