// Package store owns the durable userID -> Account mapping. It is the
// sole writer of persistent state: every change goes through Mutate or
// MutateAll, which serialize on one mutex and write the whole collection
// as a unit. Serializing all writers through this single lock is what
// rules out the lost-update race between a user turn creating an order
// and a monitor tick scanning mid-write.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
	"github.com/shashwatraajsingh/TRADEETH/internal/types"
)

type Store struct {
	mu       sync.Mutex
	path     string
	accounts map[string]*types.Account
}

// Open loads the snapshot at path, or starts empty when no file exists.
func Open(path string) (*Store, error) {
	accounts, err := loadAll(path)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", path, err)
	}
	return &Store{path: path, accounts: accounts}, nil
}

// Get returns a copy of the account for userID.
func (s *Store) Get(userID string) (types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return types.Account{}, ErrNotFound
	}
	return cloneAccount(a), nil
}

// Create provisions the account record for userID with its address and
// custody key. Address and key are assigned here exactly once; a second
// Create for the same userID fails with ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, userID, address, custodyKey string) (types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; ok {
		return types.Account{}, ErrAlreadyExists
	}

	a := &types.Account{Address: address, CustodyKey: custodyKey}
	next := cloneAll(s.accounts)
	next[userID] = a
	if err := s.persist(ctx, next); err != nil {
		return types.Account{}, err
	}
	s.accounts = next

	logger.Info(ctx, "Account created", "user_id", userID, "address", address)
	return cloneAccount(a), nil
}

// Mutate applies fn to a copy of the account and persists the result.
// The in-memory collection is only swapped in after a successful save, so
// a failed write never leaves memory ahead of disk.
func (s *Store) Mutate(ctx context.Context, userID string, fn func(*types.Account) error) (types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; !ok {
		return types.Account{}, ErrNotFound
	}

	next := cloneAll(s.accounts)
	if err := fn(next[userID]); err != nil {
		return types.Account{}, err
	}
	if err := s.persist(ctx, next); err != nil {
		return types.Account{}, err
	}
	s.accounts = next
	return cloneAccount(next[userID]), nil
}

// MutateAll applies fn to a copy of the whole collection and persists it
// in one write when fn reports a change. The monitor uses this to batch
// every mutation of a tick into a single snapshot write.
func (s *Store) MutateAll(ctx context.Context, fn func(map[string]*types.Account) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneAll(s.accounts)
	changed, err := fn(next)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.accounts = next
	return nil
}

// Snapshot returns a copy of every account for read-only scans.
func (s *Store) Snapshot() map[string]types.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]types.Account, len(s.accounts))
	for id, a := range s.accounts {
		out[id] = cloneAccount(a)
	}
	return out
}

// persist writes the snapshot, retrying once before surfacing the error.
func (s *Store) persist(ctx context.Context, accounts map[string]*types.Account) error {
	err := saveAll(s.path, accounts)
	if err == nil {
		return nil
	}
	logger.Warn(ctx, "Snapshot write failed, retrying once", "error", err, "path", s.path)
	if err = saveAll(s.path, accounts); err != nil {
		logger.ErrorWithErr(ctx, "Snapshot write failed after retry", err, "path", s.path)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func cloneAccount(a *types.Account) types.Account {
	cp := *a
	cp.Ledger = append([]types.Transaction(nil), a.Ledger...)
	cp.Orders = append([]types.ConditionalOrder(nil), a.Orders...)
	return cp
}

func cloneAll(accounts map[string]*types.Account) map[string]*types.Account {
	next := make(map[string]*types.Account, len(accounts))
	for id, a := range accounts {
		cp := cloneAccount(a)
		next[id] = &cp
	}
	return next
}
