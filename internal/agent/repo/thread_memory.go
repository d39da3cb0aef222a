package repo

import (
	"context"
	"sync"

	"github.com/agdev/finagent/internal/agent/model"
)

// InMemoryThreadRepository is a process-lifetime ThreadRepository.
type InMemoryThreadRepository struct {
	mu      sync.RWMutex
	threads map[string][]model.Turn
}

func NewInMemoryThreadRepository() *InMemoryThreadRepository {
	return &InMemoryThreadRepository{threads: make(map[string][]model.Turn)}
}

func (r *InMemoryThreadRepository) AppendTurn(_ context.Context, threadID string, turn model.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[threadID] = append(r.threads[threadID], turn)
	return nil
}

func (r *InMemoryThreadRepository) LoadTurns(_ context.Context, threadID string) ([]model.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	turns := r.threads[threadID]
	out := make([]model.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (r *InMemoryThreadRepository) ClearThread(_ context.Context, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadID)
	return nil
}

func (r *InMemoryThreadRepository) TurnCount(_ context.Context, threadID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.threads[threadID]), nil
}

var _ model.ThreadRepository = (*InMemoryThreadRepository)(nil)
