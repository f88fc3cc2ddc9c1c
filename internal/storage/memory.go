package storage

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded in-process Store. It backs tests and
// deployments without a database, where request state is ephemeral.
type MemoryStore struct {
	mu       sync.Mutex
	requests map[string]WithdrawalRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]WithdrawalRequest)}
}

func (s *MemoryStore) CreateActive(_ context.Context, req *WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requests {
		if r.Account == req.Account && r.VaultID == req.VaultID && r.Status.Active() {
			return ErrActiveExists
		}
	}
	s.requests[req.ID] = *req

	return nil
}

func (s *MemoryStore) Put(_ context.Context, req *WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = *req
	return nil
}

func (s *MemoryStore) FindActive(_ context.Context, account, vaultID string) (*WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *WithdrawalRequest
	for _, r := range s.requests {
		if r.Account != account || r.VaultID != vaultID || !r.Status.Active() {
			continue
		}
		if found == nil || r.CreatedAt.After(found.CreatedAt) {
			r := r
			found = &r
		}
	}

	return found, nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.requests, id)
	return nil
}
