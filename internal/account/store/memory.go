package store

import (
	"context"
	"sync"

	"lectern/internal/account/models"
	id "lectern/pkg/domain"
	"lectern/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.Mutex
	accounts map[id.UserID]*models.Account
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[id.UserID]*models.Account)}
}

// Save inserts or replaces an account.
func (s *InMemoryStore) Save(_ context.Context, acc *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *acc
	s.accounts[acc.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (s *InMemoryStore) Update(_ context.Context, userID id.UserID, mutate func(*models.Account) error) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := *acc
	if err := mutate(&working); err != nil {
		return nil, err
	}
	s.accounts[userID] = &working
	out := working
	return &out, nil
}
