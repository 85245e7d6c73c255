package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ScoreStore keeps the current and high score under {prefix}:score:current and
// {prefix}:score:high. Missing keys read as zero.
type ScoreStore struct {
	client *redis.Client
	prefix string
}

func NewScoreStore(client *redis.Client, prefix string) *ScoreStore {
	return &ScoreStore{client: client, prefix: prefix}
}

func (s *ScoreStore) GetCurrent(ctx context.Context) (int, error) {
	return s.get(ctx, key(s.prefix, "score", "current"))
}

func (s *ScoreStore) SetCurrent(ctx context.Context, score int) error {
	return s.client.Set(ctx, key(s.prefix, "score", "current"), score, 0).Err()
}

func (s *ScoreStore) GetHigh(ctx context.Context) (int, error) {
	return s.get(ctx, key(s.prefix, "score", "high"))
}

func (s *ScoreStore) SetHigh(ctx context.Context, score int) error {
	return s.client.Set(ctx, key(s.prefix, "score", "high"), score, 0).Err()
}

func (s *ScoreStore) get(ctx context.Context, k string) (int, error) {
	v, err := s.client.Get(ctx, k).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
