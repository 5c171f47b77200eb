package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/cache"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

func scrapedRecord(date string) *puzzle.Record {
	return &puzzle.Record{
		Date: puzzle.MustParseDate(date),
		Groups: []puzzle.Group{
			{Theme: "Fish", Difficulty: puzzle.DifficultyYellow, Words: []string{"BASS", "PIKE", "SOLE", "CARP"}},
			{Theme: "Keys", Difficulty: puzzle.DifficultyGreen, Words: []string{"SHIFT", "TAB", "ENTER", "ESCAPE"}},
			{Theme: "Planets", Difficulty: puzzle.DifficultyBlue, Words: []string{"MARS", "VENUS", "EARTH", "SATURN"}},
			{Theme: "", Difficulty: puzzle.DifficultyPurple, Words: []string{"FOOT", "BASKET", "HAND", "SNOW"}},
		},
		Provenance: puzzle.ProvenanceScraped,
		ScrapedAt:  time.Date(2024, time.June, 15, 4, 5, 6, 0, time.UTC),
		SourceURL:  "https://example.com/answers-" + date,
	}
}

func backupRecord(date string) *puzzle.Record {
	return puzzle.NewBackup(
		puzzle.MustParseDate(date),
		"https://example.com/answers-"+date,
		time.Date(2024, time.June, 15, 0, 5, 0, 0, time.UTC),
		"FetchFailure",
	)
}

func newRedisStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedisStore(client, 0, logger.NewNop()), mr
}

// storeFactories lists the backends that run against a real or in-process server.
func storeFactories() map[string]func(t *testing.T) cache.Store {
	return map[string]func(t *testing.T) cache.Store{
		"memory": func(*testing.T) cache.Store { return cache.NewMemoryStore() },
		"redis": func(t *testing.T) cache.Store {
			s, _ := newRedisStore(t)
			return s
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			for _, want := range []*puzzle.Record{scrapedRecord("2024-06-15"), backupRecord("2024-06-16")} {
				require.NoError(t, store.Put(ctx, want))

				got, err := store.Get(ctx, want.Date)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			_, err := newStore(t).Get(context.Background(), puzzle.MustParseDate("2024-01-01"))
			assert.True(t, errors.Is(err, cache.ErrNotFound), "got %v", err)
		})
	}
}

func TestStore_PutIsLastWriteWins(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, backupRecord("2024-06-15")))
			require.NoError(t, store.Put(ctx, scrapedRecord("2024-06-15")))

			got, err := store.Get(ctx, puzzle.MustParseDate("2024-06-15"))
			require.NoError(t, err)
			assert.Equal(t, puzzle.ProvenanceScraped, got.Provenance)
		})
	}
}

func TestStore_PutIfAbsent(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, scrapedRecord("2024-06-15")))

			written, err := store.PutIfAbsent(ctx, backupRecord("2024-06-15"))
			require.NoError(t, err)
			assert.False(t, written)

			got, err := store.Get(ctx, puzzle.MustParseDate("2024-06-15"))
			require.NoError(t, err)
			assert.Equal(t, puzzle.ProvenanceScraped, got.Provenance)

			written, err = store.PutIfAbsent(ctx, backupRecord("2024-06-16"))
			require.NoError(t, err)
			assert.True(t, written)
		})
	}
}

func TestStore_ListRecent(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			// Gaps on the 11th and 13th.
			for _, d := range []string{"2024-06-12", "2024-06-10", "2024-06-14", "2024-06-09"} {
				require.NoError(t, store.Put(ctx, scrapedRecord(d)))
			}

			got, err := store.ListRecent(ctx, 3)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "2024-06-14", got[0].Date.String())
			assert.Equal(t, "2024-06-12", got[1].Date.String())
			assert.Equal(t, "2024-06-10", got[2].Date.String())

			all, err := store.ListRecent(ctx, 50)
			require.NoError(t, err)
			assert.Len(t, all, 4)

			none, err := store.ListRecent(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStore_RejectsRecordWithoutDate(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			err := newStore(t).Put(context.Background(), &puzzle.Record{Provenance: puzzle.ProvenanceScraped})
			require.ErrorIs(t, err, puzzle.ErrMissingDate)
		})
	}
}

func TestRedisStore_KeyFormatAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := cache.NewRedisStore(client, 24*time.Hour, nil)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, scrapedRecord("2024-06-15")))

	assert.True(t, mr.Exists("puzzle-2024-06-15"))
	assert.Equal(t, 24*time.Hour, mr.TTL("puzzle-2024-06-15"))

	mr.FastForward(25 * time.Hour)
	_, err := store.Get(ctx, puzzle.MustParseDate("2024-06-15"))
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRedisStore_ListRecentSkipsForeignAndCorruptKeys(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, scrapedRecord("2024-06-15")))
	require.NoError(t, mr.Set("puzzle-2024-06-16", "{not json"))
	require.NoError(t, mr.Set("puzzle-latest", "ignored"))
	require.NoError(t, mr.Set("other-2024-06-17", "ignored"))

	got, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-06-15", got[0].Date.String())

	_, err = store.Get(ctx, puzzle.MustParseDate("2024-06-16"))
	require.ErrorIs(t, err, cache.ErrCorrupt)
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), puzzle.MustParseDate("2024-06-15"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, cache.ErrNotFound))
}

func TestDecode_LegacyValueWithoutProvenance(t *testing.T) {
	rec, err := cache.Decode([]byte(`{"date":"2023-11-02","groups":[]}`))
	require.NoError(t, err)
	assert.Equal(t, puzzle.ProvenanceUnknown, rec.Provenance)

	_, err = cache.Decode([]byte(`{"groups":[]}`))
	require.ErrorIs(t, err, cache.ErrCorrupt)
}

func TestMemoryStore_SetRaw(t *testing.T) {
	store := cache.NewMemoryStore()
	store.SetRaw(puzzle.Key(puzzle.MustParseDate("2024-06-15")), []byte("garbage"))

	assert.Equal(t, 1, store.Len())
	_, err := store.Get(context.Background(), puzzle.MustParseDate("2024-06-15"))
	require.ErrorIs(t, err, cache.ErrCorrupt)
}
