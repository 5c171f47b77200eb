package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// maxLookbackDays caps how far back the resolver may search.
const maxLookbackDays = 60

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Service.Timezone); err != nil {
		return &ValidationError{Field: "service.timezone", Message: "unknown timezone " + c.Service.Timezone}
	}
	if u, err := url.Parse(c.Source.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: "source.base_url", Message: "must be an http(s) URL"}
	}
	if c.Fetch.Timeout <= 0 {
		return &ValidationError{Field: "fetch.timeout", Message: "must be positive"}
	}
	if c.Fetch.MaxRetries < 0 {
		return &ValidationError{Field: "fetch.max_retries", Message: "must not be negative"}
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if c.Resolver.LookbackDays < 0 || c.Resolver.LookbackDays > maxLookbackDays {
		return &ValidationError{
			Field:   "resolver.lookback_days",
			Message: fmt.Sprintf("must be between 0 and %d", maxLookbackDays),
		}
	}
	for _, spec := range c.Schedule.Specs {
		if _, err := cron.ParseStandard(spec); err != nil {
			return &ValidationError{Field: "schedule.specs", Message: fmt.Sprintf("invalid cron spec %q: %v", spec, err)}
		}
	}
	if c.Events.Enabled && c.Cache.Redis.Address == "" {
		return &ValidationError{Field: "events.enabled", Message: "requires cache.redis.address"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error"}
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case BackendMemory:
		return nil
	case BackendRedis:
		if c.Cache.Redis.Address == "" {
			return &ValidationError{Field: "cache.redis.address", Message: "is required"}
		}
		if c.Cache.Redis.TTL < 0 {
			return &ValidationError{Field: "cache.redis.ttl", Message: "must not be negative"}
		}
		return nil
	case BackendPostgres:
		if c.Cache.Postgres.Port < 1 || c.Cache.Postgres.Port > 65535 {
			return &ValidationError{Field: "cache.postgres.port", Message: "must be between 1 and 65535"}
		}
		if c.Cache.Postgres.Database == "" {
			return &ValidationError{Field: "cache.postgres.database", Message: "is required"}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("must be one of: %s, %s, %s", BackendMemory, BackendRedis, BackendPostgres),
		}
	}
}
