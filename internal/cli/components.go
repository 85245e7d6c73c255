package cli

import (
	"context"
	"fmt"
	"time"

	"classical-quiz-service/internal/app"
	"classical-quiz-service/internal/config"
	"classical-quiz-service/internal/domain"
	"classical-quiz-service/internal/infra/file"
	"classical-quiz-service/internal/infra/memory"
	pgstore "classical-quiz-service/internal/infra/postgres"
	redisstore "classical-quiz-service/internal/infra/redis"
	"classical-quiz-service/internal/logger"
	"classical-quiz-service/internal/notify"
	"classical-quiz-service/internal/playback"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// components are the collaborators shared by the server and the terminal game.
type components struct {
	loader   memory.CatalogLoader
	catalog  app.Catalog
	scores   app.ScoreStore
	games    app.GameRepository
	handoffs app.HandoffStore
	session  *playback.Session
	closers  []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// serviceOptions maps the quiz config onto GameService options.
func (c *components) serviceOptions(cfg config.Config) []app.ServiceOption {
	opts := []app.ServiceOption{app.WithGameOptions(app.WithAnswerSlots(cfg.Quiz.AnswerSlots))}
	if c.session != nil {
		opts = append(opts, app.WithPlayback(c.session))
	}
	return opts
}

// buildComponents wires storage and playback from config. Redis wins over local stores
// when configured; Postgres wins over the catalog file.
func buildComponents(ctx context.Context, cfg config.Config, log *logger.Logger, localScores bool) (*components, error) {
	c := &components{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c.closers = append(c.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	loader, err := c.catalogLoader(ctx, cfg, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.loader = loader

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	handoffTTL := config.TTLDuration(cfg.Quiz.HandoffTTL, 24*time.Hour)
	var invalidate func()
	if redisClient != nil {
		repo := redisstore.NewCatalogRepository(redisClient, loader, cfg.Redis.Prefix, catalogTTL, redisstore.WithLogger(log))
		invalidate = func() {
			if err := repo.Invalidate(context.Background()); err != nil {
				log.Warn("invalidate catalog cache failed", "error", err)
			}
		}
		c.catalog = repo
		c.scores = redisstore.NewScoreStore(redisClient, cfg.Redis.Prefix)
		c.games = redisstore.NewGameStore(redisClient, cfg.Redis.Prefix, redisstore.DefaultLiveTTL)
		c.handoffs = redisstore.NewHandoffStore(redisClient, cfg.Redis.Prefix, handoffTTL)
	} else {
		repo := memory.NewCatalogRepository(loader, catalogTTL)
		invalidate = repo.Invalidate
		c.catalog = repo
		c.scores = memory.NewScoreStore()
		c.games = memory.NewGameStore()
		c.handoffs = memory.NewHandoffStore()
	}

	if redisClient == nil {
		path := cfg.Scores.Path
		if path == "" && localScores {
			if path, err = file.DefaultScorePath(); err != nil {
				log.Warn("no home directory, scores kept in memory", "error", err)
			}
		}
		if path != "" {
			c.scores = file.NewScoreStore(path)
			handoffPath := file.HandoffPathFor(path)
			c.handoffs = file.NewHandoffStore(handoffPath, handoffTTL)
			log.Debug("scores and saved games stored in files", "scores", path, "handoffs", handoffPath)
		}
	}

	if fl, ok := loader.(*file.CatalogLoader); ok {
		watchCtx, cancel := context.WithCancel(ctx)
		c.closers = append(c.closers, cancel)
		go func() {
			if err := file.Watch(watchCtx, fl.Path(), log, invalidate); err != nil {
				log.Warn("catalog watcher stopped", "error", err)
			}
		}()
	}

	if cfg.Audio.Enabled {
		if !playback.AudioAvailable {
			log.Warn("audio playback not available in this build; samples are tracked silently")
		}
		var presenter playback.Presenter = notify.NewLogPresenter(log)
		if cfg.Notifications.Enabled {
			presenter = notify.NewDesktopPresenter(cfg.Notifications.AppName, log)
		}
		c.session = playback.NewSession(playback.NewBeepPlayer(nil, log), presenter, log)
		c.closers = append(c.closers, c.session.Release)
	}

	return c, nil
}

func (c *components) catalogLoader(ctx context.Context, cfg config.Config, log *logger.Logger) (memory.CatalogLoader, error) {
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		log.Info("catalog loaded from postgres")
		return pgstore.NewCatalogLoader(pool), nil
	case cfg.Catalog.Path != "":
		log.Info("catalog loaded from file", "path", cfg.Catalog.Path)
		return file.NewCatalogLoader(cfg.Catalog.Path), nil
	default:
		log.Info("using built-in catalog")
		return memory.NewStaticCatalogLoader(builtinCatalog()), nil
	}
}

// builtinCatalog is used when neither Postgres nor a catalog file is configured.
func builtinCatalog() []domain.Item {
	return []domain.Item{
		{ID: 1, Composer: "Ludwig van Beethoven", Title: "Symphony No. 5 in C minor", URI: "assets/samples/beethoven_symphony_5.wav", Portrait: "beethoven"},
		{ID: 2, Composer: "Johann Sebastian Bach", Title: "Toccata and Fugue in D minor", URI: "assets/samples/bach_toccata_fugue.wav", Portrait: "bach"},
		{ID: 3, Composer: "Wolfgang Amadeus Mozart", Title: "Eine kleine Nachtmusik", URI: "assets/samples/mozart_nachtmusik.wav", Portrait: "mozart"},
		{ID: 4, Composer: "Frederic Chopin", Title: "Nocturne in E-flat major, Op. 9 No. 2", URI: "assets/samples/chopin_nocturne.wav", Portrait: "chopin"},
		{ID: 5, Composer: "Antonio Vivaldi", Title: "The Four Seasons: Spring", URI: "assets/samples/vivaldi_spring.wav", Portrait: "vivaldi"},
		{ID: 6, Composer: "Pyotr Ilyich Tchaikovsky", Title: "Swan Lake", URI: "assets/samples/tchaikovsky_swan_lake.wav", Portrait: "tchaikovsky"},
		{ID: 7, Composer: "Claude Debussy", Title: "Clair de lune", URI: "assets/samples/debussy_clair_de_lune.wav", Portrait: "debussy"},
		{ID: 8, Composer: "Edvard Grieg", Title: "In the Hall of the Mountain King", URI: "assets/samples/grieg_mountain_king.wav", Portrait: "grieg"},
	}
}
