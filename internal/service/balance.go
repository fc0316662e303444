package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
	"github.com/josh-kwaku/corporate-ledger/internal/fx"
	"github.com/josh-kwaku/corporate-ledger/internal/ledger"
	"github.com/josh-kwaku/corporate-ledger/internal/lock"
	"github.com/josh-kwaku/corporate-ledger/internal/logging"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

// stage names the step a balance request failed in, for logs.
type stage string

const (
	stageAuthorizing stage = "authorizing"
	stageValidating  stage = "validating"
	stageLoading     stage = "loading"
	stageAllocating  stage = "allocating"
	stageCommitting  stage = "committing"
)

type BalanceResult struct {
	Entry   *domain.LedgerEntry
	Balance domain.Balance
}

// HistoryEntry is a ledger entry as reported to admins. Missing values come
// back as empty strings and zeros.
type HistoryEntry struct {
	Type        string
	Currency    string
	Rate        string
	Amount      int64
	Description string
	CreatedAt   int64
}

type History struct {
	Balance domain.Balance
	Entries []HistoryEntry
	Total   int
}

type balanceRequest struct {
	conversion  *fx.Conversion
	description string
}

type BalanceService struct {
	accounts   accountReader
	ledger     ledgerReader
	executor   balanceExecutor
	schemas    schemaSource
	rates      rateConverter
	locker     lock.Locker
	maxRetries uint64
	now        func() time.Time
}

func NewBalanceService(
	accounts accountReader,
	ledger ledgerReader,
	executor balanceExecutor,
	schemas schemaSource,
	rates rateConverter,
	locker lock.Locker,
	maxRetries int,
) *BalanceService {
	return &BalanceService{
		accounts:   accounts,
		ledger:     ledger,
		executor:   executor,
		schemas:    schemas,
		rates:      rates,
		locker:     locker,
		maxRetries: uint64(max(maxRetries, 0)),
		now:        time.Now,
	}
}

func (s *BalanceService) IncreaseBalance(ctx context.Context, caller domain.Caller, accountID uuid.UUID, payload validation.Payload) (*BalanceResult, error) {
	res, err := s.change(ctx, caller, accountID, payload, domain.EntryTypeIncreaseBalance)
	if err != nil {
		return nil, fmt.Errorf("IncreaseBalance: %w", err)
	}
	return res, nil
}

func (s *BalanceService) UseBalance(ctx context.Context, caller domain.Caller, accountID uuid.UUID, payload validation.Payload) (*BalanceResult, error) {
	res, err := s.change(ctx, caller, accountID, payload, domain.EntryTypeUseBalance)
	if err != nil {
		return nil, fmt.Errorf("UseBalance: %w", err)
	}
	return res, nil
}

func (s *BalanceService) change(ctx context.Context, caller domain.Caller, accountID uuid.UUID, payload validation.Payload, kind domain.EntryType) (*BalanceResult, error) {
	log := logging.FromContext(ctx).With("account_id", accountID, "operation", kind)

	st := stageAuthorizing
	fail := func(err error) (*BalanceResult, error) {
		log.Info("balance change rejected", "stage", st, "error", err)
		return nil, err
	}

	if !caller.IsAdmin() {
		return fail(domain.ErrUnauthorized)
	}

	st = stageValidating
	req, err := s.parseRequest(caller.Role, payload)
	if err != nil {
		return fail(err)
	}

	var result *BalanceResult
	err = s.locker.WithLock(ctx, accountLockKey(accountID), func(ctx context.Context) error {
		attempt := 0
		return backoff.Retry(func() error {
			attempt++
			res, err := s.apply(ctx, accountID, kind, req, &st)
			if err == nil {
				result = res
				return nil
			}
			if errors.Is(err, domain.ErrVersionConflict) {
				log.Warn("version conflict, retrying", "attempt", attempt)
				return err
			}
			return backoff.Permanent(err)
		}, backoff.WithContext(backoff.WithMaxRetries(conflictBackOff(), s.maxRetries), ctx))
	})
	if err != nil {
		return fail(err)
	}

	log.Info("balance change committed",
		"entry_id", result.Entry.ID,
		"currency", result.Entry.Currency,
		"amount", result.Entry.Amount,
		"base_amount", result.Entry.BaseAmount,
		"balance_after", result.Balance.CurrentBalance,
		"credit_after", result.Balance.CurrentCredit,
	)
	return result, nil
}

func (s *BalanceService) parseRequest(role domain.Role, payload validation.Payload) (balanceRequest, error) {
	schema, err := s.schemas.Schema(validation.SchemaBalanceChange, role)
	if err != nil {
		return balanceRequest{}, fmt.Errorf("parseRequest: %w", err)
	}
	if _, err := validation.Validate(schema, payload); err != nil {
		return balanceRequest{}, fmt.Errorf("parseRequest: %w", err)
	}

	currency, _ := payload.String("currency")
	rawAmount, _ := payload.String("amount")
	description, _ := payload.String("description")

	amount, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		return balanceRequest{}, fmt.Errorf("parseRequest: amount %q: %w", rawAmount, domain.ErrInvalidAmount)
	}

	conv, err := s.rates.Convert(domain.Currency(currency), amount)
	if err != nil {
		return balanceRequest{}, fmt.Errorf("parseRequest: %w", err)
	}
	return balanceRequest{conversion: conv, description: description}, nil
}

// apply runs one load-allocate-commit cycle against the current version.
func (s *BalanceService) apply(ctx context.Context, accountID uuid.UUID, kind domain.EntryType, req balanceRequest, st *stage) (*BalanceResult, error) {
	*st = stageLoading
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", storeErr(err))
	}

	*st = stageAllocating
	alloc, err := ledger.Allocate(account.Balance, kind, req.conversion.BaseAmount)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	before := account.Balance
	after := alloc.Apply(before)
	if !after.IsConsistent() {
		return nil, fmt.Errorf("apply: allocation left account %s inconsistent: %+v: %w", accountID, after, domain.ErrPersistence)
	}

	now := s.now().UTC()
	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		UserID:        account.UserID,
		Type:          kind,
		Currency:      req.conversion.Currency,
		Rate:          req.conversion.Rate,
		Amount:        req.conversion.Amount,
		BaseAmount:    req.conversion.BaseAmount,
		BalanceBefore: before.CurrentBalance,
		BalanceAfter:  after.CurrentBalance,
		CreditBefore:  before.CurrentCredit,
		CreditAfter:   after.CurrentCredit,
		Description:   req.description,
		CreatedAt:     now,
	}
	event, err := domain.NewLedgerEvent(entry, after)
	if err != nil {
		return nil, fmt.Errorf("apply: build event: %w", err)
	}

	*st = stageCommitting
	err = s.executor.CommitBalanceChange(ctx, &domain.BalanceChange{
		UserID:          account.UserID,
		ExpectedVersion: account.Version,
		Balance:         after,
		Entry:           entry,
		Event:           event,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("apply: %w", storeErr(err))
	}

	return &BalanceResult{Entry: entry, Balance: after}, nil
}

// GetBalanceHistory lists an account's ledger entries newest first. A zero
// limit returns every entry.
func (s *BalanceService) GetBalanceHistory(ctx context.Context, caller domain.Caller, accountID uuid.UUID, limit, offset int) (*History, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("GetBalanceHistory: %w", domain.ErrUnauthorized)
	}
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("GetBalanceHistory: negative limit or offset: %w", domain.ErrInvalidRequest)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetBalanceHistory: %w", storeErr(err))
	}

	entries, total, err := s.ledger.ListByUserID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("GetBalanceHistory: %w", storeErr(err))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	views := make([]HistoryEntry, len(entries))
	for i := range entries {
		views[i] = toHistoryEntry(&entries[i])
	}
	return &History{Balance: account.Balance, Entries: views, Total: total}, nil
}

func toHistoryEntry(e *domain.LedgerEntry) HistoryEntry {
	v := HistoryEntry{
		Type:        string(e.Type),
		Currency:    string(e.Currency),
		Amount:      e.Amount,
		Description: e.Description,
	}
	if !e.Rate.IsZero() {
		v.Rate = e.Rate.String()
	}
	if !e.CreatedAt.IsZero() {
		v.CreatedAt = e.CreatedAt.Unix()
	}
	return v
}

func accountLockKey(id uuid.UUID) string {
	return "ledger:account:" + id.String()
}

func conflictBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return b
}

// storeErr keeps domain sentinels and tags everything else as a persistence failure.
func storeErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}
