// Package stores provides AccountStore implementations that don't
// need external infrastructure. The GORM-backed store lives in the
// gorm subpackage.
package stores

import (
	"context"
	"sync"
	"time"

	"github.com/panyam/accounts"
)

// MemoryStore is a mutex-guarded in-memory AccountStore. It backs
// tests and local development; it enforces the same email uniqueness
// guarantee the database store gets from its key constraint.
type MemoryStore struct {
	mu          sync.RWMutex
	byID        map[string]*accounts.Account
	byEmail     map[string]string
	byCode      map[string]string
	byFederated map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:        make(map[string]*accounts.Account),
		byEmail:     make(map[string]string),
		byCode:      make(map[string]string),
		byFederated: make(map[string]string),
	}
}

func federatedKey(provider, subjectID string) string {
	return provider + ":" + subjectID
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.byID[id]
	if !ok {
		return nil, accounts.ErrAccountNotFound
	}
	return clone(acct), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, accounts.ErrAccountNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *MemoryStore) FindByFederatedID(_ context.Context, provider, subjectID string) (*accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byFederated[federatedKey(provider, subjectID)]
	if !ok {
		return nil, accounts.ErrAccountNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *MemoryStore) FindByVerificationCode(_ context.Context, code string) (*accounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, accounts.ErrAccountNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *MemoryStore) Insert(_ context.Context, acct *accounts.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[acct.Email]; exists {
		return accounts.ErrDuplicateEmail
	}
	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now
	s.byID[acct.ID] = clone(acct)
	s.index(acct)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, acct *accounts.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[acct.ID]
	if !ok {
		return accounts.ErrAccountNotFound
	}
	s.unindex(prev)
	acct.UpdatedAt = time.Now().UTC()
	s.byID[acct.ID] = clone(acct)
	s.index(acct)
	return nil
}

// index/unindex maintain the secondary lookups; callers hold the lock.
func (s *MemoryStore) index(acct *accounts.Account) {
	s.byEmail[acct.Email] = acct.ID
	if acct.VerificationCode != "" {
		s.byCode[acct.VerificationCode] = acct.ID
	}
	for provider, subjectID := range acct.Federated {
		s.byFederated[federatedKey(provider, subjectID)] = acct.ID
	}
}

func (s *MemoryStore) unindex(acct *accounts.Account) {
	delete(s.byEmail, acct.Email)
	if acct.VerificationCode != "" {
		delete(s.byCode, acct.VerificationCode)
	}
	for provider, subjectID := range acct.Federated {
		delete(s.byFederated, federatedKey(provider, subjectID))
	}
}

func clone(acct *accounts.Account) *accounts.Account {
	out := *acct
	if acct.Federated != nil {
		out.Federated = make(map[string]string, len(acct.Federated))
		for k, v := range acct.Federated {
			out.Federated[k] = v
		}
	}
	return &out
}
