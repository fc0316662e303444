package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/josh-kwaku/corporate-ledger/internal/auth"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/handler"
	"github.com/josh-kwaku/corporate-ledger/internal/logging"
)

type callerResolver interface {
	ResolveCaller(ctx context.Context, credential string) (*domain.Caller, error)
}

func Auth(provider callerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			caller, err := provider.ResolveCaller(r.Context(), header)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					handler.RespondAppError(w, handler.ErrUnauthorized, nil)
					return
				}
				logging.FromContext(r.Context()).Error("caller resolution failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}

			ctx := auth.ContextWithCaller(r.Context(), *caller)
			ctx = logging.With(ctx, "caller_id", caller.AccountID, "caller_role", caller.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
