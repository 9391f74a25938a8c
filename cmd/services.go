package cmd

import (
	"context"

	"sjsage522/partsworker/config"
	"sjsage522/partsworker/internal/crawler"
	"sjsage522/partsworker/internal/store"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/services/cache"
	"sjsage522/partsworker/services/publisher"
	"sjsage522/partsworker/services/worker"
)

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     *store.SQLiteStore
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// ScraperFactory builds a fresh scraper per search, sharing only the cache
func (s *Services) ScraperFactory(cfg config.Config) worker.ScraperFactory {
	opts := crawler.OptionsFromConfig(cfg, s.Cache)
	return func() (*crawler.Scraper, error) {
		return crawler.NewScraper(opts, crawler.DefaultSelectors(), cfg.MaxPages)
	}
}

// initializeServices connects the optional backends. Memcache and Redis are
// only used when configured; the database is opened when dbPath is set.
func initializeServices(ctx context.Context, cfg config.Config, dbPath string) (*Services, error) {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable, rate limit flag kept in memory")
			services.Cache = cache.NewMemoryCache()
		} else {
			services.Cache = memcacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	} else {
		services.Cache = cache.NewMemoryCache()
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(publisher.RedisOptions{
			Addr:            cfg.RedisAddr,
			DB:              cfg.RedisDB,
			StreamPrefix:    cfg.RedisStream,
			StreamCount:     cfg.RedisStreamCount,
			StreamMaxLength: cfg.RedisStreamMaxLength,
		})
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			services.Cleanup()
			return nil, err
		}
		services.Publisher = redisPublisher

		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if dbPath != "" {
		db, err := store.Open(ctx, dbPath)
		if err != nil {
			services.Cleanup()
			return nil, err
		}
		services.Store = db
	}

	return services, nil
}

// sinks returns the sinks for the initialized services
func (s *Services) sinks(extra ...worker.Sink) []worker.Sink {
	var sinks []worker.Sink
	if s.Store != nil {
		sinks = append(sinks, &worker.StoreSink{Store: s.Store})
	}
	if s.Publisher != nil {
		sinks = append(sinks, &worker.StreamSink{Publisher: s.Publisher})
	}
	return append(sinks, extra...)
}

func loadConfig() (config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
