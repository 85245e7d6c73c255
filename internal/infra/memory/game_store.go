package memory

import (
	"sync"

	"classical-quiz-service/internal/app"
)

// GameStore is an in-memory implementation of app.GameRepository holding live games.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]*app.Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]*app.Game),
	}
}

func (s *GameStore) Put(gameID string, game *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[gameID] = game
}

func (s *GameStore) Get(gameID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[gameID]
	return game, ok
}

func (s *GameStore) Delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
}
