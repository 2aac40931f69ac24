package repository

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps the token in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	token *Token
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{now: o.now}
}

func (s *MemoryStore) Load(ctx context.Context) (Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return Token{}, ErrNotFound
	}
	return *s.token, nil
}

func (s *MemoryStore) Save(ctx context.Context, token Token) error {
	if token.Empty() {
		return fmt.Errorf("%w: token is empty", ErrInvalidToken)
	}
	if token.SavedAt.IsZero() {
		token.SavedAt = s.now()
	}
	s.mu.Lock()
	s.token = &token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
	return nil
}
