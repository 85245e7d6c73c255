package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"classical-quiz-service/internal/domain"
	"classical-quiz-service/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the sample catalog from a backing store (file, Postgres, ...).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Item, error)
}

// CatalogRepository caches the catalog in Redis and falls back to a loader on cache miss.
// Items are stored as:  HSET {prefix}:catalog:items {itemID} {json}
// Order is stored as:   RPUSH {prefix}:catalog:order {itemID}...
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	prefix string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	log    *logger.Logger
}

// CatalogOption customizes a CatalogRepository.
type CatalogOption func(*CatalogRepository)

// WithLogger reports cache write failures; reads still fall back to the loader.
func WithLogger(log *logger.Logger) CatalogOption {
	return func(r *CatalogRepository) { r.log = log.With("component", "redis_catalog") }
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, prefix string, ttl time.Duration, opts ...CatalogOption) *CatalogRepository {
	r := &CatalogRepository{
		client: client,
		loader: loader,
		prefix: prefix,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CatalogRepository) AllItemIDs(ctx context.Context) ([]int, error) {
	raw, err := r.client.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err == nil && len(raw) > 0 {
		ids := make([]int, 0, len(raw))
		for _, s := range raw {
			id, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("cached item id %q: %w", s, err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	items, err := r.fill(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(item domain.Item, _ int) int { return item.ID }), nil
}

func (r *CatalogRepository) ItemByID(ctx context.Context, id int) (domain.Item, error) {
	raw, err := r.client.HGet(ctx, r.itemsKey(), strconv.Itoa(id)).Result()
	if err == nil {
		var item domain.Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return domain.Item{}, fmt.Errorf("decode cached item %d: %w", id, err)
		}
		return item, nil
	}
	if errors.Is(err, redis.Nil) {
		// a warm cache without the field means the item does not exist
		if n, _ := r.client.Exists(ctx, r.orderKey()).Result(); n > 0 {
			return domain.Item{}, domain.ErrItemNotFound
		}
	}

	items, err := r.fill(ctx)
	if err != nil {
		return domain.Item{}, err
	}
	item, ok := lo.Find(items, func(item domain.Item) bool { return item.ID == id })
	if !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return item, nil
}

// Invalidate drops the cached catalog so the next read goes to the loader.
func (r *CatalogRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, r.itemsKey(), r.orderKey()).Err()
}

func (r *CatalogRepository) fill(ctx context.Context) ([]domain.Item, error) {
	result, err, _ := r.sf.Do(r.orderKey(), func() (interface{}, error) {
		items, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		itemsKey, orderKey := r.itemsKey(), r.orderKey()
		ttl := r.ttlWithJitter()
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, itemsKey, orderKey)
		for _, item := range items {
			data, err := json.Marshal(item)
			if err != nil {
				return nil, fmt.Errorf("encode item %d: %w", item.ID, err)
			}
			pipe.HSet(ctx, itemsKey, strconv.Itoa(item.ID), data)
			pipe.RPush(ctx, orderKey, item.ID)
		}
		if ttl > 0 {
			pipe.Expire(ctx, itemsKey, ttl)
			pipe.Expire(ctx, orderKey, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			r.log.Warn("cache catalog failed", "items", len(items), "error", err)
		}

		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Item), nil
}

func (r *CatalogRepository) itemsKey() string {
	return key(r.prefix, "catalog", "items")
}

func (r *CatalogRepository) orderKey() string {
	return key(r.prefix, "catalog", "order")
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
