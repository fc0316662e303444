package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
)

// memStore is an in-memory account and ledger store with the same version
// guard the real executors apply.
type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]domain.Account
	entries  []domain.LedgerEntry
	events   []domain.OutboxMessage

	reads   atomic.Int64
	commits atomic.Int64

	// conflicts makes the next N commits fail with a version conflict.
	conflicts atomic.Int64
	commitErr error
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[uuid.UUID]domain.Account)}
}

func (m *memStore) put(a domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.UserID] = a
}

func (m *memStore) account(id uuid.UUID) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id]
}

func (m *memStore) ledgerLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	m.reads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) List(_ context.Context, limit, offset int) ([]domain.Account, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return page(all, limit, offset), len(all), nil
}

func (m *memStore) Create(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return domain.ErrEmailTaken
		}
	}
	a.Version = 1
	m.accounts[a.UserID] = *a
	return nil
}

func (m *memStore) UpdateProfile(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.accounts[a.UserID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != a.Version {
		return domain.ErrVersionConflict
	}
	a.Version++
	a.Balance = cur.Balance
	m.accounts[a.UserID] = *a
	return nil
}

func (m *memStore) ListByUserID(_ context.Context, id uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var own []domain.LedgerEntry
	for _, e := range m.entries {
		if e.UserID == id {
			own = append(own, e)
		}
	}
	// insertion order, the service is responsible for ordering
	return page(own, limit, offset), len(own), nil
}

func (m *memStore) CommitBalanceChange(_ context.Context, c *domain.BalanceChange) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	if m.conflicts.Load() > 0 {
		m.conflicts.Add(-1)
		return domain.ErrVersionConflict
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[c.UserID]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Version != c.ExpectedVersion {
		return domain.ErrVersionConflict
	}
	a.Balance = c.Balance
	a.Version++
	a.UpdatedAt = c.UpdatedAt
	m.accounts[c.UserID] = a
	m.entries = append(m.entries, *c.Entry)
	if c.Event != nil {
		m.events = append(m.events, *c.Event)
	}
	m.commits.Add(1)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
