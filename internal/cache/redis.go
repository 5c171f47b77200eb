package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

// scanBatchSize is the SCAN COUNT hint used by ListRecent.
const scanBatchSize = 100

// connectionTimeout bounds the ping in NewRedisClient.
const connectionTimeout = 5 * time.Second

// RedisOptions configures a Redis connection.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(opts RedisOptions) (*redis.Client, error) {
	if opts.Address == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStore keeps records as JSON strings under puzzle-YYYY-MM-DD keys.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. A zero ttl keeps records forever.
func NewRedisStore(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisStore{client: client, ttl: ttl, logger: log}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, date puzzle.Date) (*puzzle.Record, error) {
	key := puzzle.Key(date)
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return Decode(data)
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, rec *puzzle.Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if setErr := s.client.Set(ctx, rec.Key(), data, s.ttl).Err(); setErr != nil {
		return fmt.Errorf("redis set %s: %w", rec.Key(), setErr)
	}
	return nil
}

// PutIfAbsent implements Store with SET NX.
func (s *RedisStore) PutIfAbsent(ctx context.Context, rec *puzzle.Record) (bool, error) {
	data, err := Encode(rec)
	if err != nil {
		return false, err
	}
	written, err := s.client.SetNX(ctx, rec.Key(), data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", rec.Key(), err)
	}
	return written, nil
}

// ListRecent implements Store. Keys are discovered with SCAN, ordered by the
// date in the key, and fetched with a single MGET.
func (s *RedisStore) ListRecent(ctx context.Context, n int) ([]*puzzle.Record, error) {
	if n <= 0 {
		return nil, nil
	}

	dates, err := s.scanDates(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	if len(dates) > n {
		dates = dates[:n]
	}
	if len(dates) == 0 {
		return nil, nil
	}

	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = puzzle.Key(d)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	records := make([]*puzzle.Record, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Expired between SCAN and MGET.
			continue
		}
		rec, decodeErr := Decode([]byte(str))
		if decodeErr != nil {
			s.logger.Warn("Skipping undecodable cache entry",
				logger.String("redis_key", keys[i]),
				logger.Error(decodeErr),
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisStore) scanDates(ctx context.Context) ([]puzzle.Date, error) {
	pattern := puzzle.KeyPrefix + "*"
	var (
		cursor uint64
		dates  []puzzle.Date
		seen   = make(map[puzzle.Date]bool)
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("scan keys: %w", err)
		}
		for _, key := range keys {
			d, parseErr := puzzle.DateFromKey(key)
			if parseErr != nil || seen[d] {
				// SCAN may return a key more than once.
				continue
			}
			seen[d] = true
			dates = append(dates, d)
		}
		cursor = next
		if cursor == 0 {
			return dates, nil
		}
	}
}
