package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidationFailed    = errors.New("validation failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrVersionConflict     = errors.New("optimistic lock conflict")
	ErrPersistence         = errors.New("persistence failure")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountNotApproved  = errors.New("account not approved")
)
