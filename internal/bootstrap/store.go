package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/cache"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/config"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
)

// Backend is the configured cache store plus the connections behind it.
type Backend struct {
	Store cache.Store
	// Redis is set when the redis backend is in use so events can share it.
	Redis *redis.Client
	Close func() error
}

// SetupStore connects the configured cache backend.
func SetupStore(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		client, err := cache.NewRedisClient(redisOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		log.Info("Using Redis cache",
			logger.String("redis_address", cfg.Cache.Redis.Address),
			logger.Duration("ttl", cfg.Cache.Redis.TTL),
		)
		return &Backend{
			Store: cache.NewRedisStore(client, cfg.Cache.Redis.TTL, log),
			Redis: client,
			Close: client.Close,
		}, nil

	case config.BackendPostgres:
		db, err := cache.NewPostgresDB(ctx, cfg.Cache.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		if migrateErr := cache.RunMigrations(ctx, db, log); migrateErr != nil {
			_ = db.Close()
			return nil, migrateErr
		}
		log.Info("Using PostgreSQL cache",
			logger.String("host", cfg.Cache.Postgres.Host),
			logger.String("database", cfg.Cache.Postgres.Database),
		)
		return &Backend{Store: cache.NewPostgresStore(db), Close: db.Close}, nil

	default:
		log.Debug("Using in-memory cache")
		return &Backend{
			Store: cache.NewMemoryStore(),
			Close: noopClose,
		}, nil
	}
}

func redisOptions(cfg *config.Config) cache.RedisOptions {
	return cache.RedisOptions{
		Address:  cfg.Cache.Redis.Address,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	}
}
