package repo

import (
	"context"
	"sync"

	"github.com/agdev/finagent/internal/agent/model"
)

type namespace struct {
	userID string
	key    string
}

// InMemoryStore is a process-lifetime MemoryStore. Concurrent writers for the same user
// resolve as last-write-wins.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[namespace]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[namespace]string)}
}

func (s *InMemoryStore) GetSummary(_ context.Context, userID string) (string, bool, error) {
	v, ok := s.get(userID, fieldConversationSummary)
	return v, ok, nil
}

func (s *InMemoryStore) SetSummary(_ context.Context, userID, summary string) error {
	s.set(userID, fieldConversationSummary, summary)
	return nil
}

func (s *InMemoryStore) GetLastSymbol(_ context.Context, userID string) (string, bool, error) {
	v, ok := s.get(userID, fieldLastSymbol)
	return v, ok, nil
}

func (s *InMemoryStore) SetLastSymbol(_ context.Context, userID, symbol string) error {
	s.set(userID, fieldLastSymbol, symbol)
	return nil
}

func (s *InMemoryStore) get(userID, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[namespace{userID: userID, key: key}]
	return v, ok
}

func (s *InMemoryStore) set(userID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[namespace{userID: userID, key: key}] = value
}

var _ model.MemoryStore = (*InMemoryStore)(nil)
