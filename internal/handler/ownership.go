package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/josh-kwaku/corporate-ledger/internal/auth"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

const maxBodyBytes = 1 << 20

// callerAndTarget resolves the authenticated caller and the account named in
// the path. Authorization is left to the service.
func callerAndTarget(r *http.Request) (domain.Caller, uuid.UUID, *AppError) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return domain.Caller{}, uuid.Nil, ErrMissingToken
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return domain.Caller{}, uuid.Nil, ErrResourceNotFound
	}
	return caller, id, nil
}

// decodePayload reads a JSON object body. Numbers keep their literal text so
// the validation rules see exactly what the client sent.
func decodePayload(w http.ResponseWriter, r *http.Request) (validation.Payload, *AppError) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, ErrInvalidRequest
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload validation.Payload
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, ErrInvalidRequest
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrInvalidRequest
	}
	return payload, nil
}

// pagination reads limit and offset query parameters. Missing values are zero.
func pagination(r *http.Request) (int, int, []FieldError) {
	var errs []FieldError
	parse := func(name string) int {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: name, Message: "must be a non-negative integer"})
			return 0
		}
		return n
	}
	limit := parse("limit")
	offset := parse("offset")
	return limit, offset, errs
}
