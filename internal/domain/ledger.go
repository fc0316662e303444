package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeIncreaseBalance EntryType = "IncreaseBalance"
	EntryTypeUseBalance      EntryType = "UseBalance"
)

func (t EntryType) IsValid() bool {
	return t == EntryTypeIncreaseBalance || t == EntryTypeUseBalance
}

// LedgerEntry is immutable once written. Amount is in the request currency,
// BaseAmount is Rate * Amount in base units.
type LedgerEntry struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Type          EntryType
	Currency      Currency
	Rate          decimal.Decimal
	Amount        int64
	BaseAmount    int64
	BalanceBefore int64
	BalanceAfter  int64
	CreditBefore  int64
	CreditAfter   int64
	Description   string
	CreatedAt     time.Time
}

// BalanceChange is everything the executor writes in one transaction.
type BalanceChange struct {
	UserID          uuid.UUID
	ExpectedVersion int64
	Balance         Balance
	Entry           *LedgerEntry
	Event           *OutboxMessage
	UpdatedAt       time.Time
}
