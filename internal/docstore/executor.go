package docstore

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type LedgerExecutor struct {
	store *Store
}

func NewLedgerExecutor(s *Store) *LedgerExecutor {
	return &LedgerExecutor{store: s}
}

// CommitBalanceChange updates the account balance, guarded by the expected
// version, and inserts the ledger entry and outbox event in one transaction.
func (e *LedgerExecutor) CommitBalanceChange(ctx context.Context, change *domain.BalanceChange) error {
	sess, err := e.store.client.StartSession()
	if err != nil {
		return fmt.Errorf("CommitBalanceChange: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		res, err := e.store.collection(accountsCollection).UpdateOne(sc,
			bson.M{"_id": change.UserID.String(), "version": change.ExpectedVersion},
			bson.M{
				"$set": bson.M{
					"balance.currentBalance": change.Balance.CurrentBalance,
					"balance.currentCredit":  change.Balance.CurrentCredit,
					"updatedAt":              change.UpdatedAt,
				},
				"$inc": bson.M{"version": 1},
			},
		)
		if err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrVersionConflict
		}

		if _, err := e.store.collection(ledgerCollection).InsertOne(sc, toLedgerDocument(change.Entry)); err != nil {
			return nil, fmt.Errorf("insert ledger entry: %w", err)
		}
		if change.Event != nil {
			if _, err := e.store.collection(outboxCollection).InsertOne(sc, toOutboxDocument(change.Event)); err != nil {
				return nil, fmt.Errorf("insert outbox message: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("CommitBalanceChange: %w", err)
	}
	return nil
}
