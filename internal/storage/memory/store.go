package memory

import (
	"context"
	"sync"

	"github.com/sgpatel/ai-chat-api-assistant/internal/flow"
	"github.com/sgpatel/ai-chat-api-assistant/internal/storage"
)

// Store is an in-memory implementation of StateStore
type Store struct {
	mu     sync.RWMutex
	states map[string]*flow.State
}

var _ storage.StateStore = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{
		states: make(map[string]*flow.State),
	}
}

// Load returns a clone so callers never share the stored record.
func (s *Store) Load(_ context.Context, userID string) (*flow.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.states[userID]
	if !exists {
		return nil, nil
	}
	return st.Clone(), nil
}

func (s *Store) Save(_ context.Context, st *flow.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[st.UserID] = st.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}

func (s *Store) Close() error {
	return nil
}
