package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/lib/pq"
)

const accountColumns = `user_id, company_name, business_name, vat, tin, ceo_name,
	phone, email, password_hash, status, role,
	current_balance, current_credit, max_credit, version, created_at, updated_at`

const pgUniqueViolation = "23505"

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByEmail: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return a, nil
}

// List returns accounts newest first together with the total count.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]domain.Account, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		sqlLimit(limit), offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return accounts, total, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (
			user_id, company_name, business_name, vat, tin, ceo_name,
			phone, email, password_hash, status, role,
			current_balance, current_credit, max_credit, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		a.UserID, a.CompanyName, a.BusinessName, a.VAT, a.TIN, a.CEOName,
		a.Phone, a.Email, a.PasswordHash, a.Status, a.Role,
		a.Balance.CurrentBalance, a.Balance.CurrentCredit, a.Balance.MaxCredit,
		a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return fmt.Errorf("Create: %w", domain.ErrEmailTaken)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// UpdateProfile writes the non-balance fields of a, guarded by a.Version.
// On success a.Version holds the new version.
func (r *AccountRepository) UpdateProfile(ctx context.Context, a *domain.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET
			company_name = $1, business_name = $2, vat = $3, tin = $4, ceo_name = $5,
			phone = $6, status = $7, version = version + 1, updated_at = $8
		WHERE user_id = $9 AND version = $10`,
		a.CompanyName, a.BusinessName, a.VAT, a.TIN, a.CEOName,
		a.Phone, a.Status, a.UpdatedAt,
		a.UserID, a.Version,
	)
	if err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}
	a.Version++
	return nil
}

// UpdateBalance sets the balance columns if the row is still at expectedVersion.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, change *domain.BalanceChange) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET
			current_balance = $1, current_credit = $2, version = version + 1, updated_at = $3
		WHERE user_id = $4 AND version = $5`,
		change.Balance.CurrentBalance, change.Balance.CurrentCredit, change.UpdatedAt,
		change.UserID, change.ExpectedVersion,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

// sqlLimit maps 0 to NULL, which Postgres reads as no limit.
func sqlLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.UserID, &a.CompanyName, &a.BusinessName, &a.VAT, &a.TIN, &a.CEOName,
		&a.Phone, &a.Email, &a.PasswordHash, &a.Status, &a.Role,
		&a.Balance.CurrentBalance, &a.Balance.CurrentCredit, &a.Balance.MaxCredit,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
