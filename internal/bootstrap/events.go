package bootstrap

import (
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/cache"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/config"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/events"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
)

func noopClose() error { return nil }

// SetupEventPublisher creates an optional event publisher. It reuses the cache's
// Redis client when there is one. Returns nil if events are disabled or Redis is
// unavailable. The returned func closes any connection opened here.
func SetupEventPublisher(
	cfg *config.Config,
	shared *redis.Client,
	log logger.Logger,
) (*events.Publisher, func() error) {
	if !cfg.Events.Enabled {
		return nil, noopClose
	}

	client, closeFn := shared, noopClose
	if client == nil {
		var err error
		client, err = cache.NewRedisClient(redisOptions(cfg))
		if err != nil {
			log.Warn("Redis not available, events disabled", logger.Error(err))
			return nil, noopClose
		}
		closeFn = client.Close
	}

	log.Info("Event publisher initialized",
		logger.String("redis_address", cfg.Cache.Redis.Address),
		logger.String("stream", cfg.Events.Stream),
	)
	return events.NewPublisher(client, cfg.Events.Stream, log), closeFn
}
