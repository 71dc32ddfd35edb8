package leads

import (
	"context"
	"sync"
)

// StorageKey is the fixed key leads are persisted under.
const StorageKey = "ace_chatbot_leads"

// Store is an append-only list of captured leads.
type Store interface {
	Append(ctx context.Context, lead Lead) error
	List(ctx context.Context) ([]Lead, error)
	Clear(ctx context.Context) error
}

// MemoryStore keeps leads in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	leads []Lead
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, lead Lead) error {
	s.mu.Lock()
	s.leads = append(s.leads, lead)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Lead, len(s.leads))
	copy(out, s.leads)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.leads = nil
	s.mu.Unlock()
	return nil
}
