package userstore

import (
	"context"
	"sync"

	"github.com/manfra-io/marketauth"
)

// Memory is a map-backed marketauth.UserStore for tests and examples. It
// enforces the same contract as the Postgres store: unique emails and the
// engine's sentinel errors.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]marketauth.UserRecord
	byEmail map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]marketauth.UserRecord),
		byEmail: make(map[string]string),
	}
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (marketauth.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return marketauth.UserRecord{}, marketauth.ErrUserNotFound
	}
	return m.byID[id], nil
}

func (m *Memory) GetUserByID(_ context.Context, userID string) (marketauth.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byID[userID]
	if !ok {
		return marketauth.UserRecord{}, marketauth.ErrUserNotFound
	}
	return user, nil
}

func (m *Memory) CreateUser(_ context.Context, input marketauth.CreateUserInput) (marketauth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[input.Email]; exists {
		return marketauth.UserRecord{}, marketauth.ErrEmailExists
	}

	user := marketauth.UserRecord{
		UserID:       input.UserID,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		IsWorker:     input.IsWorker,
	}
	m.byID[user.UserID] = user
	m.byEmail[user.Email] = user.UserID
	return user, nil
}

func (m *Memory) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	return m.mutate(userID, func(u *marketauth.UserRecord) {
		u.PasswordHash = newHash
	})
}

func (m *Memory) SetTwoFASecret(_ context.Context, userID, secret string) error {
	return m.mutate(userID, func(u *marketauth.UserRecord) {
		u.TwoFASecret = secret
	})
}

func (m *Memory) EnableTwoFA(_ context.Context, userID string) error {
	return m.mutate(userID, func(u *marketauth.UserRecord) {
		u.TwoFAEnabled = true
	})
}

func (m *Memory) mutate(userID string, fn func(*marketauth.UserRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[userID]
	if !ok {
		return marketauth.ErrUserNotFound
	}
	fn(&user)
	m.byID[userID] = user
	return nil
}
