package memory

import (
	"context"
	"sync"

	"classical-quiz-service/internal/domain"
)

// HandoffStore is an in-memory implementation of app.HandoffStore.
type HandoffStore struct {
	mu       sync.RWMutex
	handoffs map[string]domain.Handoff
}

func NewHandoffStore() *HandoffStore {
	return &HandoffStore{
		handoffs: make(map[string]domain.Handoff),
	}
}

func (s *HandoffStore) Save(_ context.Context, gameID string, handoff domain.Handoff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handoffs[gameID] = domain.Handoff{
		RemainingIDs: append([]int(nil), handoff.RemainingIDs...),
		CurrentScore: handoff.CurrentScore,
	}
	return nil
}

func (s *HandoffStore) Load(_ context.Context, gameID string) (domain.Handoff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handoff, ok := s.handoffs[gameID]
	if !ok {
		return domain.Handoff{}, domain.ErrHandoffNotFound
	}
	return handoff, nil
}

func (s *HandoffStore) Delete(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handoffs, gameID)
	return nil
}
