package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
)

// LedgerExecutor applies a balance change, its ledger entry and its outbox
// event in one transaction.
type LedgerExecutor struct {
	db       *DB
	accounts *AccountRepository
	ledger   *LedgerRepository
	outbox   *OutboxRepository
}

func NewLedgerExecutor(db *DB, accounts *AccountRepository, ledger *LedgerRepository, outbox *OutboxRepository) *LedgerExecutor {
	return &LedgerExecutor{db: db, accounts: accounts, ledger: ledger, outbox: outbox}
}

func (e *LedgerExecutor) CommitBalanceChange(ctx context.Context, change *domain.BalanceChange) error {
	err := e.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.accounts.UpdateBalance(ctx, tx, change); err != nil {
			return err
		}
		if err := e.ledger.Create(ctx, tx, change.Entry); err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		if change.Event != nil {
			if err := e.outbox.Create(ctx, tx, change.Event); err != nil {
				return fmt.Errorf("outbox: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("CommitBalanceChange: %w", err)
	}
	return nil
}
