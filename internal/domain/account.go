package domain

import (
	"time"

	"github.com/google/uuid"
)

type AccountStatus string

const (
	AccountStatusNotVerified AccountStatus = "notVerified"
	AccountStatusVerified    AccountStatus = "verified"
	AccountStatusApproved    AccountStatus = "approved"
	AccountStatusRejected    AccountStatus = "rejected"
	AccountStatusDeleted     AccountStatus = "deleted"
)

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusNotVerified, AccountStatusVerified, AccountStatusApproved,
		AccountStatusRejected, AccountStatusDeleted:
		return true
	}
	return false
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Balance amounts are in base units (AMD).
type Balance struct {
	CurrentBalance int64
	CurrentCredit  int64
	MaxCredit      int64
}

// Headroom is the credit that can still be drawn.
func (b Balance) Headroom() int64 {
	return b.MaxCredit - b.CurrentCredit
}

func (b Balance) IsConsistent() bool {
	return b.CurrentBalance >= 0 &&
		b.CurrentCredit >= 0 &&
		b.MaxCredit >= 0 &&
		b.CurrentCredit <= b.MaxCredit
}

type Account struct {
	UserID       uuid.UUID
	CompanyName  string
	BusinessName string
	VAT          string
	TIN          string
	CEOName      string
	Phone        string
	Email        string
	PasswordHash string
	Status       AccountStatus
	Role         Role
	Balance      Balance
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountProfile holds the editable, non-balance fields of an account.
// Nil pointers are left untouched on update.
type AccountProfile struct {
	CompanyName  *string
	BusinessName *string
	VAT          *string
	TIN          *string
	CEOName      *string
	Phone        *string
	Status       *AccountStatus
}

func (p AccountProfile) IsEmpty() bool {
	return p.CompanyName == nil && p.BusinessName == nil && p.VAT == nil &&
		p.TIN == nil && p.CEOName == nil && p.Phone == nil && p.Status == nil
}

func (p AccountProfile) ApplyTo(a *Account) {
	if p.CompanyName != nil {
		a.CompanyName = *p.CompanyName
	}
	if p.BusinessName != nil {
		a.BusinessName = *p.BusinessName
	}
	if p.VAT != nil {
		a.VAT = *p.VAT
	}
	if p.TIN != nil {
		a.TIN = *p.TIN
	}
	if p.CEOName != nil {
		a.CEOName = *p.CEOName
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}

// Caller is the authenticated principal behind a request.
type Caller struct {
	AccountID uuid.UUID
	Role      Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
