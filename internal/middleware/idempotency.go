package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/corporate-ledger/internal/auth"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/handler"
	"github.com/josh-kwaku/corporate-ledger/internal/lock"
	"github.com/josh-kwaku/corporate-ledger/internal/logging"
)

type idempotencyStore interface {
	Find(ctx context.Context, key string, callerID uuid.UUID) (*domain.IdempotencyRecord, error)
	Save(ctx context.Context, rec *domain.IdempotencyRecord) error
}

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	maxKeyLength      = 255
)

// Idempotency replays the stored response when an authenticated caller
// repeats a mutating request with the same Idempotency-Key. Requests without
// the header pass through untouched. Server errors are not cached.
//
// Lookup, execution and save for one caller and key run under locker, so a
// duplicate arriving while the first is still running waits and replays.
func Idempotency(store idempotencyStore, locker lock.Locker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}

			caller, ok := auth.CallerFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)
			log := logging.FromContext(r.Context())

			err = locker.WithLock(r.Context(), idempotencyLockKey(caller.AccountID, key), func(ctx context.Context) error {
				cached, err := store.Find(ctx, key, caller.AccountID)
				if err != nil {
					return err
				}
				if cached != nil {
					replay(w, cached, reqHash)
					return nil
				}

				rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
				next.ServeHTTP(rec, r.WithContext(ctx))

				if rec.statusCode >= http.StatusInternalServerError {
					return nil
				}

				now := time.Now().UTC()
				record := &domain.IdempotencyRecord{
					Key:          key,
					CallerID:     caller.AccountID,
					RequestHash:  reqHash,
					StatusCode:   rec.statusCode,
					ResponseBody: rec.body.Bytes(),
					CreatedAt:    now,
					ExpiresAt:    now.Add(idempotencyTTL),
				}
				if err := store.Save(ctx, record); err != nil {
					log.Error("idempotency store failed", "error", err, "idempotency_key", key)
				}
				return nil
			})
			switch {
			case err == nil:
			case errors.Is(err, lock.ErrNotAcquired):
				handler.RespondAppError(w, handler.ErrRequestInProgress, nil)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				log.Info("idempotent request abandoned", "error", err, "idempotency_key", key)
			default:
				log.Error("idempotency lookup failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
			}
		})
	}
}

func replay(w http.ResponseWriter, cached *domain.IdempotencyRecord, reqHash string) {
	if cached.RequestHash != reqHash {
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	w.Write(cached.ResponseBody)
}

func idempotencyLockKey(callerID uuid.UUID, key string) string {
	return "idempotency:" + callerID.String() + ":" + key
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
