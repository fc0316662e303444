package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
)

const TestPassword = "Passw0rd!"

type accountCreator interface {
	Create(ctx context.Context, account *domain.Account) error
}

// NewAccount returns an approved account with the given balance. Email is
// unique per call.
func NewAccount(t *testing.T, role domain.Role, balance domain.Balance) *domain.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Account{
		UserID:       id,
		CompanyName:  "Acme Travel",
		BusinessName: "Acme",
		VAT:          "VATNUMBER",
		TIN:          "TINNUMBER",
		CEOName:      "Jane Doe",
		Phone:        "+37491000000",
		Email:        id.String() + "@example.com",
		PasswordHash: string(hash),
		Status:       domain.AccountStatusApproved,
		Role:         role,
		Balance:      balance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SeedAccount stores a new approved account through any repository.
func SeedAccount(t *testing.T, repo accountCreator, role domain.Role, balance domain.Balance) *domain.Account {
	t.Helper()

	a := NewAccount(t, role, balance)
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func GetBalance(t *testing.T, db *sql.DB, userID uuid.UUID) domain.Balance {
	t.Helper()

	var b domain.Balance
	err := db.QueryRow(
		`SELECT current_balance, current_credit, max_credit FROM accounts WHERE user_id = $1`,
		userID,
	).Scan(&b.CurrentBalance, &b.CurrentCredit, &b.MaxCredit)
	if err != nil {
		t.Fatalf("get balance %s: %v", userID, err)
	}
	return b
}

func CountLedgerEntries(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for %s: %v", userID, err)
	}
	return count
}

func CountOutboxMessages(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM outbox_messages WHERE aggregate_id = $1`, userID).Scan(&count)
	if err != nil {
		t.Fatalf("count outbox messages for %s: %v", userID, err)
	}
	return count
}
