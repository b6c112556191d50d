package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/coffee-service/internal/domain"
)

// FixtureLogin and FixtureHash are the built-in demo account (password "joe").
const (
	FixtureLogin = "joe"
	FixtureHash  = "$2a$10$FETmvGZlLA8txiuL1Y6dqehHoUO/Q86Kxn5P72lLT6QAE37TnbCeq"
)

// MemoryCredentialRepository keeps credentials in a map. Used when no
// database is configured.
type MemoryCredentialRepository struct {
	mu    sync.RWMutex
	creds map[string]domain.Credential
}

// NewMemoryCredentialRepository returns a store holding the given credentials.
func NewMemoryCredentialRepository(creds ...domain.Credential) *MemoryCredentialRepository {
	r := &MemoryCredentialRepository{creds: make(map[string]domain.Credential, len(creds))}
	for _, c := range creds {
		r.Put(c)
	}
	return r
}

// NewFixtureCredentialRepository returns a store seeded with the demo account.
func NewFixtureCredentialRepository() *MemoryCredentialRepository {
	return NewMemoryCredentialRepository(domain.Credential{
		Login:        FixtureLogin,
		PasswordHash: FixtureHash,
		Authorities:  []string{},
	})
}

// Put adds or replaces a credential.
func (r *MemoryCredentialRepository) Put(cred domain.Credential) {
	cred.Authorities = append([]string{}, cred.Authorities...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[cred.Login] = cred
}

func (r *MemoryCredentialRepository) Lookup(_ context.Context, login string) (*domain.Credential, error) {
	r.mu.RLock()
	cred, ok := r.creds[login]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUnknownIdentity
	}
	cred.Authorities = append([]string{}, cred.Authorities...)
	return &cred, nil
}
