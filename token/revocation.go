package token

import (
	"context"
	"sync"
	"time"
)

// RevocationStore records invalidated jtis until their natural expiry.
// IsRevoked sits on the hot path of every privileged request.
type RevocationStore interface {
	// Revoke marks jti invalid until expiresAt. Idempotent: re-revoking an
	// already revoked jti must not reset its expiry.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Sweep deletes records whose expiry has passed and returns the count.
	Sweep(ctx context.Context) (int64, error)
}

// InMemoryRevocationStore is a mutex-guarded map implementation, used in
// tests and single-process deployments.
type InMemoryRevocationStore struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
	nowFunc func() time.Time
}

type InMemoryRevocationStoreOption func(*InMemoryRevocationStore)

func WithStoreNowFunc(now func() time.Time) InMemoryRevocationStoreOption {
	return func(s *InMemoryRevocationStore) {
		s.nowFunc = now
	}
}

func NewInMemoryRevocationStore(options ...InMemoryRevocationStoreOption) *InMemoryRevocationStore {
	s := &InMemoryRevocationStore{
		revoked: make(map[string]time.Time),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *InMemoryRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.revoked[jti]; exists {
		return nil
	}
	s.revoked[jti] = expiresAt
	return nil
}

func (s *InMemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.revoked[jti]
	return exists, nil
}

func (s *InMemoryRevocationStore) Sweep(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	var deleted int64
	for jti, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, jti)
			deleted++
		}
	}
	return deleted, nil
}
