package memory

import (
	"context"
	"sync"
)

// ScoreStore keeps scores in process memory. Scores do not survive a restart.
type ScoreStore struct {
	mu      sync.RWMutex
	current int
	high    int
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{}
}

func (s *ScoreStore) GetCurrent(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *ScoreStore) SetCurrent(_ context.Context, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = score
	return nil
}

func (s *ScoreStore) GetHigh(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.high, nil
}

func (s *ScoreStore) SetHigh(_ context.Context, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.high = score
	return nil
}
