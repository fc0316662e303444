package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord is a stored response replayed for a repeated
// Idempotency-Key from the same caller.
type IdempotencyRecord struct {
	Key          string
	CallerID     uuid.UUID
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
