package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/domain/entity"
)

// InMemoryIdempotencyStore implements repository.IdempotencyRepository
type InMemoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]entity.IdempotencyKey
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{keys: make(map[string]entity.IdempotencyKey)}
}

func idempotencyKey(tenantID uuid.UUID, key string) string {
	return tenantID.String() + "/" + key
}

func (s *InMemoryIdempotencyStore) GetByKey(ctx context.Context, tenantID uuid.UUID, key string) (*entity.IdempotencyKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[idempotencyKey(tenantID, key)]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

// Create keeps the first stored response for a key.
func (s *InMemoryIdempotencyStore) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := idempotencyKey(ikey.TenantID, ikey.Key)
	if _, ok := s.keys[k]; !ok {
		s.keys[k] = *ikey
	}
	return nil
}

func (s *InMemoryIdempotencyStore) DeleteExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, v := range s.keys {
		if now.After(v.ExpiresAt) {
			delete(s.keys, k)
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
