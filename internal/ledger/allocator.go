// Package ledger decides how a balance change is split between an account's
// prepaid balance and its credit line.
package ledger

import (
	"fmt"
	"math"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
)

// Allocation is the split computed for one request, in base units.
type Allocation struct {
	Kind   domain.EntryType
	Amount int64

	// Increase: paid towards outstanding credit, then into the balance.
	PayForCredit  int64
	PayForBalance int64

	// Use: drawn from the balance, then from credit headroom.
	FromBalance int64
	FromCredit  int64
}

// Allocate computes how amount is applied to b. It never mutates b and
// returns ErrInsufficientFunds when a use exceeds balance plus headroom.
func Allocate(b domain.Balance, kind domain.EntryType, amount int64) (Allocation, error) {
	if amount <= 0 {
		return Allocation{}, fmt.Errorf("Allocate: %w", domain.ErrInvalidAmount)
	}

	switch kind {
	case domain.EntryTypeIncreaseBalance:
		a, err := allocateIncrease(b, amount)
		if err != nil {
			return Allocation{}, fmt.Errorf("Allocate: %w", err)
		}
		return a, nil
	case domain.EntryTypeUseBalance:
		a, err := allocateUse(b, amount)
		if err != nil {
			return Allocation{}, fmt.Errorf("Allocate: %w", err)
		}
		return a, nil
	default:
		return Allocation{}, fmt.Errorf("Allocate: unknown kind %q: %w", kind, domain.ErrInvalidRequest)
	}
}

func allocateIncrease(b domain.Balance, amount int64) (Allocation, error) {
	payForCredit := min(amount, b.CurrentCredit)
	payForBalance := amount - payForCredit
	if payForBalance > math.MaxInt64-b.CurrentBalance {
		return Allocation{}, fmt.Errorf("balance %d cannot take %d more: %w",
			b.CurrentBalance, payForBalance, domain.ErrInvalidAmount)
	}
	return Allocation{
		Kind:          domain.EntryTypeIncreaseBalance,
		Amount:        amount,
		PayForCredit:  payForCredit,
		PayForBalance: payForBalance,
	}, nil
}

func allocateUse(b domain.Balance, amount int64) (Allocation, error) {
	if amount <= b.CurrentBalance {
		return Allocation{
			Kind:        domain.EntryTypeUseBalance,
			Amount:      amount,
			FromBalance: amount,
		}, nil
	}

	remaining := amount - b.CurrentBalance
	if remaining > b.Headroom() {
		return Allocation{}, fmt.Errorf("need %d from credit, %d available: %w",
			remaining, b.Headroom(), domain.ErrInsufficientFunds)
	}

	return Allocation{
		Kind:        domain.EntryTypeUseBalance,
		Amount:      amount,
		FromBalance: b.CurrentBalance,
		FromCredit:  remaining,
	}, nil
}

// Apply returns the balance after the allocation.
func (a Allocation) Apply(b domain.Balance) domain.Balance {
	switch a.Kind {
	case domain.EntryTypeIncreaseBalance:
		b.CurrentBalance += a.PayForBalance
		b.CurrentCredit -= a.PayForCredit
	case domain.EntryTypeUseBalance:
		b.CurrentBalance -= a.FromBalance
		b.CurrentCredit += a.FromCredit
	}
	return b
}
