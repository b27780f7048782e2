// Package credentials provides an in-memory credential store for
// development and tests. Production deployments wire the session
// service to their real user store instead.
package credentials

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/storelane/authcore/core"
	"github.com/storelane/authcore/ports"
	"github.com/storelane/authcore/vault"
)

// MemoryStore keeps credential records in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*core.Credential
	byEmail map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*core.Credential),
		byEmail: make(map[string]string),
	}
}

// Seed hashes the password and inserts an active record, returning
// its generated id. Existing records for the same email are replaced.
func (s *MemoryStore) Seed(ctx context.Context, v *vault.Vault, email, password, role string) (string, error) {
	encoded, err := v.Hash(ctx, password)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalize(email)
	id, ok := s.byEmail[key]
	if !ok {
		id = uuid.New().String()
		s.byEmail[key] = id
	}
	s.byID[id] = &core.Credential{
		ID:           id,
		Email:        email,
		PasswordHash: encoded,
		Role:         role,
		IsActive:     true,
	}
	return id, nil
}

// SetActive toggles a record's active flag.
func (s *MemoryStore) SetActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred, ok := s.byID[id]; ok {
		cred.IsActive = active
	}
}

// FindByIdentifier looks a record up by email.
func (s *MemoryStore) FindByIdentifier(ctx context.Context, identifier string) (*core.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalize(identifier)]
	if !ok {
		return nil, core.ErrCredentialNotFound
	}
	return copyOf(s.byID[id]), nil
}

// FindByID looks a record up by subject id.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*core.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.byID[id]
	if !ok {
		return nil, core.ErrCredentialNotFound
	}
	return copyOf(cred), nil
}

// UpdatePassword stores a new encoded hash for the subject.
func (s *MemoryStore) UpdatePassword(ctx context.Context, id string, encodedHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[id]
	if !ok {
		return core.ErrCredentialNotFound
	}
	cred.PasswordHash = encodedHash
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func copyOf(cred *core.Credential) *core.Credential {
	clone := *cred
	return &clone
}

var _ ports.CredentialStore = (*MemoryStore)(nil)
