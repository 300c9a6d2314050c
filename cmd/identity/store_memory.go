package identity

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store for development and tests.
// Uniqueness is checked and recorded under one lock.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]Account
	byUsername map[string]string
	byEmail    map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]Account),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (s *MemoryStore) FindByIdentifier(ctx context.Context, identifier string) (Account, error) {
	const op = "identity.FindByIdentifier"
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	key := NormalizeIdentifier(identifier)
	if key == "" {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[key]
	if !ok {
		id, ok = s.byEmail[key]
	}
	if !ok {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (Account, error) {
	const op = "identity.FindByID"
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}
	return a, nil
}

func (s *MemoryStore) Create(ctx context.Context, in CreateAccountInput) (Account, error) {
	const op = "identity.Create"
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	in, err := validateCreate(op, in)
	if err != nil {
		return Account{}, err
	}

	id, err := NewAccountID(in.Now)
	if err != nil {
		return Account{}, err
	}

	userKey := NormalizeUsername(in.Username)
	emailKey := NormalizeEmail(in.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[userKey]; taken {
		return Account{}, ConflictError{Op: op, Field: "username"}
	}
	if _, taken := s.byEmail[emailKey]; taken {
		return Account{}, ConflictError{Op: op, Field: "email"}
	}

	a := Account{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    in.Now,
		UpdatedAt:    in.Now,
	}
	s.byID[id] = a
	s.byUsername[userKey] = id
	s.byEmail[emailKey] = id
	return a, nil
}

// Delete removes an account. The HTTP surface never deletes accounts; this
// exists for administrative tooling and tests.
func (s *MemoryStore) Delete(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	delete(s.byUsername, NormalizeUsername(a.Username))
	delete(s.byEmail, NormalizeEmail(a.Email))
	return true
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }
