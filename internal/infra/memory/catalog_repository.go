package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"classical-quiz-service/internal/domain"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the sample catalog from a backing store (file, Postgres, ...).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Item, error)
}

const catalogKey = "catalog"

// CatalogRepository caches the catalog with TTL to avoid repeated loader hits.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	entry *cachedCatalog
}

type cachedCatalog struct {
	items     []domain.Item
	byID      map[int]domain.Item
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AllItemIDs returns every item ID in catalog order.
func (r *CatalogRepository) AllItemIDs(ctx context.Context) ([]int, error) {
	entry, err := r.get(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(entry.items, func(item domain.Item, _ int) int { return item.ID }), nil
}

// ItemByID looks up a single item.
func (r *CatalogRepository) ItemByID(ctx context.Context, id int) (domain.Item, error) {
	entry, err := r.get(ctx)
	if err != nil {
		return domain.Item{}, err
	}
	item, ok := entry.byID[id]
	if !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return item, nil
}

// Items returns the whole catalog in order.
func (r *CatalogRepository) Items(ctx context.Context) ([]domain.Item, error) {
	entry, err := r.get(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.Item(nil), entry.items...), nil
}

// Invalidate drops the cached catalog so the next read goes to the loader.
func (r *CatalogRepository) Invalidate() {
	r.mu.Lock()
	r.entry = nil
	r.mu.Unlock()
}

func (r *CatalogRepository) get(ctx context.Context) (*cachedCatalog, error) {
	now := r.clock()

	r.mu.RLock()
	if r.entry != nil && r.entry.expiresAt.After(now) {
		entry := r.entry
		r.mu.RUnlock()
		return entry, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.entry != nil && r.entry.expiresAt.After(now) {
			entry := r.entry
			r.mu.RUnlock()
			return entry, nil
		}
		r.mu.RUnlock()

		items, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		entry := &cachedCatalog{
			items:     items,
			byID:      lo.KeyBy(items, func(item domain.Item) int { return item.ID }),
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Lock()
		r.entry = entry
		r.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*cachedCatalog), nil
}

// StaticCatalogLoader serves a fixed slice of items (built-in catalog, tests).
type StaticCatalogLoader struct {
	items []domain.Item
}

func NewStaticCatalogLoader(items []domain.Item) *StaticCatalogLoader {
	return &StaticCatalogLoader{items: items}
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context) ([]domain.Item, error) {
	if len(l.items) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	return append([]domain.Item(nil), l.items...), nil
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
