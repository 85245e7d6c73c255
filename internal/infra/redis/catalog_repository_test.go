package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"classical-quiz-service/internal/domain"
	"classical-quiz-service/internal/infra/memory"
	"classical-quiz-service/internal/logger"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCatalogRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{CatalogLoader: memory.NewStaticCatalogLoader(sampleItems())}
	repo := NewCatalogRepository(newClient(mr), loader, "test", time.Minute)

	ids, err := repo.AllItemIDs(context.Background())
	if err != nil {
		t.Fatalf("all ids: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("expected ids [1 2 3] in order, got %v", ids)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("test:catalog:order") || !mr.Exists("test:catalog:items") {
		t.Fatalf("expected catalog keys in redis")
	}

	// Second call should hit cache, loader not incremented.
	item, err := repo.ItemByID(context.Background(), 2)
	if err != nil {
		t.Fatalf("item by id: %v", err)
	}
	if item.Composer != "Bach" || item.URI != "file:///samples/bach.mp3" {
		t.Fatalf("unexpected cached item %+v", item)
	}
	_, _ = repo.AllItemIDs(context.Background())
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestCatalogRepositoryItemNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{CatalogLoader: memory.NewStaticCatalogLoader(sampleItems())}
	repo := NewCatalogRepository(newClient(mr), loader, "test", time.Minute)

	// cold cache: loads, then misses
	if _, err := repo.ItemByID(context.Background(), 42); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected not found on cold cache, got %v", err)
	}
	// warm cache: answered from redis
	if _, err := repo.ItemByID(context.Background(), 42); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected not found on warm cache, got %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected a single load, got %d", loader.calls)
	}
}

func TestCatalogRepositoryReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{CatalogLoader: memory.NewStaticCatalogLoader(sampleItems())}
	repo := NewCatalogRepository(newClient(mr), loader, "test", time.Minute)

	if _, err := repo.AllItemIDs(context.Background()); err != nil {
		t.Fatalf("all ids: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := repo.AllItemIDs(context.Background()); err != nil {
		t.Fatalf("all ids after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls)
	}

	if err := repo.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := repo.ItemByID(context.Background(), 1); err != nil {
		t.Fatalf("item after invalidate: %v", err)
	}
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestCatalogRepositoryLoaderError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewCatalogRepository(newClient(mr), memory.NewStaticCatalogLoader(nil), "test", time.Minute)
	if _, err := repo.AllItemIDs(context.Background()); !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Fatalf("expected empty catalog error, got %v", err)
	}
	if mr.Exists("test:catalog:order") {
		t.Fatalf("failed load must not populate the cache")
	}
}

type countingLoader struct {
	CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context) ([]domain.Item, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx)
}

func sampleItems() []domain.Item {
	return []domain.Item{
		{ID: 1, Composer: "Beethoven", Title: "Symphony No. 5", URI: "file:///samples/beethoven.mp3", Portrait: "beethoven"},
		{ID: 2, Composer: "Bach", Title: "Toccata and Fugue", URI: "file:///samples/bach.mp3", Portrait: "bach"},
		{ID: 3, Composer: "Mozart", Title: "Eine kleine Nachtmusik", URI: "file:///samples/mozart.mp3", Portrait: "mozart"},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestCatalogRepositoryLogsCacheWriteFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	core, logs := observer.New(zap.WarnLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	client := newClient(mr)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	repo := NewCatalogRepository(client, memory.NewStaticCatalogLoader(sampleItems()), "test", time.Minute, WithLogger(log))

	mr.SetError("READONLY replica")
	ids, err := repo.AllItemIDs(context.Background())
	if err != nil {
		t.Fatalf("expected loader fallback despite redis errors, got %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids from the loader, got %v", ids)
	}
	entries := logs.FilterMessage("cache catalog failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one cache failure warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["component"] != "redis_catalog" {
		t.Fatalf("unexpected log context %v", entries[0].ContextMap())
	}
}
