package redis

import (
	"context"
	"sync"
	"time"

	"classical-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// DefaultLiveTTL bounds how long a game counts as live after its last round activity,
// so a crashed instance does not block resuming forever.
const DefaultLiveTTL = 5 * time.Minute

// GameStore is a Redis-aware implementation of app.GameRepository and app.GameLocks.
// Games live in a local map; Redis only carries a liveness marker per game so
// other instances refuse to resume a game that is being played somewhere.
type GameStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewGameStore(client *redis.Client, prefix string, ttl time.Duration) *GameStore {
	if ttl <= 0 {
		ttl = DefaultLiveTTL
	}
	return &GameStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
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

// Touch marks the game live and extends the marker's TTL.
func (s *GameStore) Touch(ctx context.Context, gameID string) error {
	return s.client.Set(ctx, s.key(gameID), "1", s.ttl).Err()
}

// Live reports whether another instance holds the game. Games held locally are not
// reported, since the caller already has them.
func (s *GameStore) Live(ctx context.Context, gameID string) (bool, error) {
	if _, ok := s.Get(gameID); ok {
		return false, nil
	}
	n, err := s.client.Exists(ctx, s.key(gameID)).Result()
	return n > 0, err
}

func (s *GameStore) Release(ctx context.Context, gameID string) error {
	return s.client.Del(ctx, s.key(gameID)).Err()
}

func (s *GameStore) key(gameID string) string {
	return key(s.prefix, "game", gameID)
}
