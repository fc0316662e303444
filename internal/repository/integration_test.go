package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/repository"
	"github.com/josh-kwaku/corporate-ledger/internal/testutil"
)

type repos struct {
	accounts    *repository.AccountRepository
	ledger      *repository.LedgerRepository
	outbox      *repository.OutboxRepository
	idempotency *repository.IdempotencyRepository
	executor    *repository.LedgerExecutor
}

func setupRepos(t *testing.T, db *sql.DB) repos {
	t.Helper()
	r := repos{
		accounts:    repository.NewAccountRepository(db),
		ledger:      repository.NewLedgerRepository(db),
		outbox:      repository.NewOutboxRepository(db),
		idempotency: repository.NewIdempotencyRepository(db),
	}
	r.executor = repository.NewLedgerExecutor(repository.NewDB(db), r.accounts, r.ledger, r.outbox)
	return r
}

// increaseChange builds a top-up of amount AMD against the account's
// current state.
func increaseChange(t *testing.T, a *domain.Account, amount int64, at time.Time) *domain.BalanceChange {
	t.Helper()
	after := a.Balance
	after.CurrentBalance += amount
	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		UserID:        a.UserID,
		Type:          domain.EntryTypeIncreaseBalance,
		Currency:      domain.CurrencyAMD,
		Rate:          decimal.NewFromInt(1),
		Amount:        amount,
		BaseAmount:    amount,
		BalanceBefore: a.Balance.CurrentBalance,
		BalanceAfter:  after.CurrentBalance,
		CreditBefore:  a.Balance.CurrentCredit,
		CreditAfter:   after.CurrentCredit,
		Description:   "top up",
		CreatedAt:     at,
	}
	event, err := domain.NewLedgerEvent(entry, after)
	require.NoError(t, err)
	return &domain.BalanceChange{
		UserID:          a.UserID,
		ExpectedVersion: a.Version,
		Balance:         after,
		Entry:           entry,
		Event:           event,
		UpdatedAt:       at,
	}
}

func TestLedgerExecutor_CommitsAllWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := setupRepos(t, db)
	ctx := context.Background()

	a := testutil.SeedAccount(t, r.accounts, domain.RoleUser, domain.Balance{MaxCredit: 500})

	require.NoError(t, r.executor.CommitBalanceChange(ctx, increaseChange(t, a, 150, time.Now().UTC())))

	assert.Equal(t, domain.Balance{CurrentBalance: 150, MaxCredit: 500}, testutil.GetBalance(t, db, a.UserID))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, a.UserID))
	assert.Equal(t, 1, testutil.CountOutboxMessages(t, db, a.UserID))

	stored, err := r.accounts.GetByID(ctx, a.UserID)
	require.NoError(t, err)
	assert.Equal(t, a.Version+1, stored.Version)
}

func TestLedgerExecutor_StaleVersionWritesNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := setupRepos(t, db)
	ctx := context.Background()

	a := testutil.SeedAccount(t, r.accounts, domain.RoleUser, domain.Balance{})
	stale := increaseChange(t, a, 10, time.Now().UTC())
	require.NoError(t, r.executor.CommitBalanceChange(ctx, increaseChange(t, a, 5, time.Now().UTC())))

	err := r.executor.CommitBalanceChange(ctx, stale)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	assert.Equal(t, int64(5), testutil.GetBalance(t, db, a.UserID).CurrentBalance)
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, a.UserID))
	assert.Equal(t, 1, testutil.CountOutboxMessages(t, db, a.UserID))
}

func TestLedgerExecutor_RollsBackOnConstraintViolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := setupRepos(t, db)
	ctx := context.Background()

	a := testutil.SeedAccount(t, r.accounts, domain.RoleUser, domain.Balance{MaxCredit: 100})
	change := increaseChange(t, a, 10, time.Now().UTC())
	change.Balance.CurrentCredit = 200 // beyond max_credit

	err := r.executor.CommitBalanceChange(ctx, change)
	require.Error(t, err)

	assert.Equal(t, domain.Balance{MaxCredit: 100}, testutil.GetBalance(t, db, a.UserID))
	assert.Zero(t, testutil.CountLedgerEntries(t, db, a.UserID))
	assert.Zero(t, testutil.CountOutboxMessages(t, db, a.UserID))
}

func TestLedgerRepository_ListNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := setupRepos(t, db)
	ctx := context.Background()

	a := testutil.SeedAccount(t, r.accounts, domain.RoleUser, domain.Balance{})
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		cur, err := r.accounts.GetByID(ctx, a.UserID)
		require.NoError(t, err)
		require.NoError(t, r.executor.CommitBalanceChange(ctx, increaseChange(t, cur, int64(i+1), base.Add(time.Duration(i)*time.Hour))))
	}

	entries, total, err := r.ledger.ListByUserID(ctx, a.UserID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[0].Amount)
	assert.Equal(t, int64(1), entries[2].Amount)
	assert.True(t, decimal.NewFromInt(1).Equal(entries[0].Rate))

	page, total, err := r.ledger.ListByUserID(ctx, a.UserID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].Amount)
}

func TestLedgerRepository_EntriesAreAppendOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := setupRepos(t, db)
	ctx := context.Background()

	a := testutil.SeedAccount(t, r.accounts, domain.RoleUser, domain.Balance{})
	require.NoError(t, r.executor.CommitBalanceChange(ctx, increaseChange(t, a, 10, time.Now().UTC())))

	_, err := db.ExecContext(ctx, `UPDATE ledger_entries SET amount = 1 WHERE user_id = $1`, a.UserID)
	assert.Error(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE user_id = $1`, a.UserID)
	assert.Error(t, err)
}

func TestAccountRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := setupRepos(t, db)
	ctx := context.Background()

	a := testutil.SeedAccount(t, r.accounts, domain.RoleUser, domain.Balance{MaxCredit: 1000})

	t.Run("get by email", func(t *testing.T) {
		got, err := r.accounts.GetByEmail(ctx, a.Email)
		require.NoError(t, err)
		assert.Equal(t, a.UserID, got.UserID)
		assert.Equal(t, a.Balance, got.Balance)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := r.accounts.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := testutil.NewAccount(t, domain.RoleUser, domain.Balance{})
		dup.Email = a.Email
		assert.ErrorIs(t, r.accounts.Create(ctx, dup), domain.ErrEmailTaken)
	})

	t.Run("update profile is version guarded", func(t *testing.T) {
		cur, err := r.accounts.GetByID(ctx, a.UserID)
		require.NoError(t, err)
		stale := *cur

		cur.Status = domain.AccountStatusRejected
		require.NoError(t, r.accounts.UpdateProfile(ctx, cur))

		stale.CompanyName = "Other"
		assert.ErrorIs(t, r.accounts.UpdateProfile(ctx, &stale), domain.ErrVersionConflict)

		got, err := r.accounts.GetByID(ctx, a.UserID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccountStatusRejected, got.Status)
		assert.Equal(t, "Acme Travel", got.CompanyName)
	})

	t.Run("list", func(t *testing.T) {
		testutil.SeedAccount(t, r.accounts, domain.RoleAdmin, domain.Balance{})
		accounts, total, err := r.accounts.List(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, accounts, 1)
	})
}

func TestOutboxRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := setupRepos(t, db)
	ctx := context.Background()

	a := testutil.SeedAccount(t, r.accounts, domain.RoleUser, domain.Balance{})
	change := increaseChange(t, a, 10, time.Now().UTC())
	require.NoError(t, r.executor.CommitBalanceChange(ctx, change))

	pending, err := r.outbox.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, change.Event.ID, pending[0].ID)
	assert.JSONEq(t, string(change.Event.Payload), string(pending[0].Payload))

	require.NoError(t, r.outbox.RecordAttempt(ctx, pending[0].ID))
	require.NoError(t, r.outbox.MarkSent(ctx, pending[0].ID, time.Now().UTC()))

	pending, err = r.outbox.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestIdempotencyRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := setupRepos(t, db)
	ctx := context.Background()
	caller := uuid.New()
	now := time.Now().UTC()

	got, err := r.idempotency.Find(ctx, "k1", caller)
	require.NoError(t, err)
	assert.Nil(t, got)

	rec := &domain.IdempotencyRecord{
		Key: "k1", CallerID: caller, RequestHash: "h1", StatusCode: 200,
		ResponseBody: []byte(`{"ok":true}`), CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, r.idempotency.Save(ctx, rec))

	// a live record is never overwritten
	second := *rec
	second.RequestHash = "h2"
	require.NoError(t, r.idempotency.Save(ctx, &second))

	got, err = r.idempotency.Find(ctx, "k1", caller)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.RequestHash)
	assert.JSONEq(t, `{"ok":true}`, string(got.ResponseBody))

	got, err = r.idempotency.Find(ctx, "k1", uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got, "keys are scoped to the caller")

	expired := &domain.IdempotencyRecord{
		Key: "old", CallerID: caller, RequestHash: "h", StatusCode: 200,
		ResponseBody: []byte(`{}`), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, r.idempotency.Save(ctx, expired))
	n, err := r.idempotency.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
