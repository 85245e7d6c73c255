package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"classical-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// HandoffStore keeps the carry-over payload of each game as JSON under
// {prefix}:handoff:{gameID}, so a game can be resumed by another process.
type HandoffStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewHandoffStore(client *redis.Client, prefix string, ttl time.Duration) *HandoffStore {
	return &HandoffStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *HandoffStore) Save(ctx context.Context, gameID string, handoff domain.Handoff) error {
	if handoff.RemainingIDs == nil {
		handoff.RemainingIDs = []int{}
	}
	data, err := json.Marshal(handoff)
	if err != nil {
		return fmt.Errorf("encode handoff: %w", err)
	}
	return s.client.Set(ctx, s.key(gameID), data, s.ttl).Err()
}

func (s *HandoffStore) Load(ctx context.Context, gameID string) (domain.Handoff, error) {
	raw, err := s.client.Get(ctx, s.key(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Handoff{}, domain.ErrHandoffNotFound
	}
	if err != nil {
		return domain.Handoff{}, err
	}
	var handoff domain.Handoff
	if err := json.Unmarshal(raw, &handoff); err != nil {
		return domain.Handoff{}, fmt.Errorf("decode handoff: %w", err)
	}
	return handoff, nil
}

func (s *HandoffStore) Delete(ctx context.Context, gameID string) error {
	return s.client.Del(ctx, s.key(gameID)).Err()
}

func (s *HandoffStore) key(gameID string) string {
	return key(s.prefix, "handoff", gameID)
}
