// Package config loads puzzle-feed configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // puzzle days are computed in a named zone; do not depend on the host tz database

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
)

const (
	defaultServiceName  = "puzzle-feed"
	defaultTimezone     = "America/New_York"
	defaultBaseURL      = "https://mashable.com/article"
	defaultSlugPrefix   = "nyt-connections-hint-answer-today"
	defaultAnchorPhrase = "What is the answer to Connections today"
	defaultUserAgent    = "Mozilla/5.0 (compatible; North-Cloud-PuzzleFeed/1.0)"

	defaultFetchTimeout   = 15 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 10 * time.Second

	defaultBackend      = BackendMemory
	defaultRedisAddress = "localhost:6379"
	defaultDBHost       = "localhost"
	defaultDBPort       = 5432
	defaultDBName       = "puzzle_feed"
	defaultDBUser       = "postgres"
	defaultDBSSLMode    = "disable"

	defaultLookbackDays = 7
	defaultEventStream  = "puzzle:events"
)

// Cache backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// defaultScheduleSpecs runs just after midnight in the puzzle timezone and then
// every two hours so a backup written before publication gets upgraded.
var defaultScheduleSpecs = []string{"5 0 * * *", "0 */2 * * *"}

// Config holds the application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Source   SourceConfig   `yaml:"source"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Cache    CacheConfig    `yaml:"cache"`
	Resolver ResolverConfig `yaml:"resolver"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Events   EventsConfig   `yaml:"events"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  logger.Config  `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name  string `yaml:"name"`
	Debug bool   `env:"APP_DEBUG" yaml:"debug"`
	// Timezone decides which calendar day "today" is.
	Timezone string `env:"PUZZLE_TIMEZONE" yaml:"timezone"`
}

// SourceConfig describes the article source that publishes the daily answers.
type SourceConfig struct {
	BaseURL      string `env:"PUZZLE_SOURCE_BASE_URL" yaml:"base_url"`
	SlugPrefix   string `env:"PUZZLE_SOURCE_SLUG"     yaml:"slug_prefix"`
	AnchorPhrase string `yaml:"anchor_phrase"`
	UserAgent    string `yaml:"user_agent"`
}

// FetchConfig bounds the article fetch.
type FetchConfig struct {
	Timeout        time.Duration `env:"FETCH_TIMEOUT"     yaml:"timeout"`
	MaxRetries     int           `env:"FETCH_MAX_RETRIES" yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// CacheConfig selects and configures the cache store.
type CacheConfig struct {
	Backend  string         `env:"CACHE_BACKEND" yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
	// TTL of cached records; zero keeps them until explicit cleanup.
	TTL time.Duration `env:"REDIS_RECORD_TTL" yaml:"ttl"`
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string `env:"POSTGRES_PUZZLE_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_PUZZLE_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_PUZZLE_USER"     yaml:"user"`
	Password string `env:"POSTGRES_PUZZLE_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_PUZZLE_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_PUZZLE_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ResolverConfig configures the freshness resolver.
type ResolverConfig struct {
	LookbackDays int `env:"RESOLVER_LOOKBACK_DAYS" yaml:"lookback_days"`
}

// ScheduleConfig configures the acquisition scheduler.
type ScheduleConfig struct {
	Specs []string `env:"SCHEDULE_SPECS" yaml:"specs"`
	// AlwaysRefetch disables the skip when today already holds a scraped record.
	AlwaysRefetch bool `env:"SCHEDULE_ALWAYS_REFETCH" yaml:"always_refetch"`
}

// EventsConfig controls acquisition event publishing to a Redis stream.
type EventsConfig struct {
	Enabled bool   `env:"EVENTS_ENABLED" yaml:"enabled"`
	Stream  string `yaml:"stream"`
}

// MetricsConfig controls the Prometheus listener of the schedule command.
type MetricsConfig struct {
	Address string `env:"METRICS_ADDRESS" yaml:"address"`
}

// Load loads configuration from path (may be empty) and validates it.
func Load(path string) (*Config, error) {
	cfg := newConfig()
	if err := LoadInto(path, cfg, setDefaults); err != nil {
		return nil, err
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("invalid config: %w", validationErr)
	}
	return cfg, nil
}

// Location returns the configured puzzle timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Service.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Service.Timezone, err)
	}
	return loc, nil
}

// newConfig seeds the fields where zero is a meaningful setting: a lookback of
// 0 serves today only and 0 retries means a single fetch attempt.
func newConfig() *Config {
	return &Config{
		Fetch:    FetchConfig{MaxRetries: defaultMaxRetries},
		Resolver: ResolverConfig{LookbackDays: defaultLookbackDays},
	}
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setSourceDefaults(&cfg.Source)
	setFetchDefaults(&cfg.Fetch)
	setCacheDefaults(&cfg.Cache)

	if len(cfg.Schedule.Specs) == 0 {
		cfg.Schedule.Specs = append([]string(nil), defaultScheduleSpecs...)
	}
	if cfg.Events.Stream == "" {
		cfg.Events.Stream = defaultEventStream
	}
	if cfg.Service.Debug {
		cfg.Logging.Development = true
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = "debug"
		}
	}
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Timezone == "" {
		svc.Timezone = defaultTimezone
	}
}

func setSourceDefaults(src *SourceConfig) {
	if src.BaseURL == "" {
		src.BaseURL = defaultBaseURL
	}
	if src.SlugPrefix == "" {
		src.SlugPrefix = defaultSlugPrefix
	}
	if src.AnchorPhrase == "" {
		src.AnchorPhrase = defaultAnchorPhrase
	}
	if src.UserAgent == "" {
		src.UserAgent = defaultUserAgent
	}
}

func setFetchDefaults(f *FetchConfig) {
	if f.Timeout == 0 {
		f.Timeout = defaultFetchTimeout
	}
	if f.InitialBackoff == 0 {
		f.InitialBackoff = defaultInitialBackoff
	}
	if f.MaxBackoff == 0 {
		f.MaxBackoff = defaultMaxBackoff
	}
}

func setCacheDefaults(c *CacheConfig) {
	if c.Backend == "" {
		c.Backend = defaultBackend
	}
	if c.Redis.Address == "" {
		c.Redis.Address = defaultRedisAddress
	}
	pg := &c.Postgres
	if pg.Host == "" {
		pg.Host = defaultDBHost
	}
	if pg.Port == 0 {
		pg.Port = defaultDBPort
	}
	if pg.User == "" {
		pg.User = defaultDBUser
	}
	if pg.Database == "" {
		pg.Database = defaultDBName
	}
	if pg.SSLMode == "" {
		pg.SSLMode = defaultDBSSLMode
	}
}
