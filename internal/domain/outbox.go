package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
)

const EventLedgerEntryCommitted = "ledger.entry.committed"

type OutboxMessage struct {
	ID          uuid.UUID
	AggregateID uuid.UUID
	EventType   string
	Payload     json.RawMessage
	Status      OutboxStatus
	Attempts    int
	CreatedAt   time.Time
	SentAt      *time.Time
}

type LedgerEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	EntryID      uuid.UUID `json:"entry_id"`
	UserID       uuid.UUID `json:"user_id"`
	Type         EntryType `json:"type"`
	Currency     Currency  `json:"currency"`
	Rate         string    `json:"rate"`
	Amount       int64     `json:"amount"`
	BaseAmount   int64     `json:"base_amount"`
	BalanceAfter int64     `json:"balance_after"`
	CreditAfter  int64     `json:"credit_after"`
	MaxCredit    int64     `json:"max_credit"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewLedgerEvent builds the outbox message announcing a committed entry.
func NewLedgerEvent(entry *LedgerEntry, after Balance) (*OutboxMessage, error) {
	id := uuid.New()
	payload, err := json.Marshal(LedgerEvent{
		EventID:      id,
		EntryID:      entry.ID,
		UserID:       entry.UserID,
		Type:         entry.Type,
		Currency:     entry.Currency,
		Rate:         entry.Rate.String(),
		Amount:       entry.Amount,
		BaseAmount:   entry.BaseAmount,
		BalanceAfter: after.CurrentBalance,
		CreditAfter:  after.CurrentCredit,
		MaxCredit:    after.MaxCredit,
		CreatedAt:    entry.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		ID:          id,
		AggregateID: entry.UserID,
		EventType:   EventLedgerEntryCommitted,
		Payload:     payload,
		Status:      OutboxStatusPending,
		CreatedAt:   entry.CreatedAt,
	}, nil
}
