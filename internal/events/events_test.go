package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/events"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
)

func TestNewPublisher_RequiresClient(t *testing.T) {
	assert.Nil(t, events.NewPublisher(nil, "", nil))
}

func TestPublisher_NilReceiverIsNoOp(t *testing.T) {
	var pub *events.Publisher
	require.NoError(t, pub.PublishAcquired(context.Background(), events.Acquired{RunID: "r1"}))
}

func TestPublisher_PublishAcquired(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	pub := events.NewPublisher(client, "", logger.NewNop())
	require.NoError(t, pub.PublishAcquired(context.Background(), events.Acquired{
		RunID:      "run-1",
		Date:       "2024-06-15",
		Written:    true,
		Provenance: "scraped",
		Reason:     "Scraped",
	}))

	msgs, err := client.XRange(context.Background(), events.DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, events.EventTypeAcquired, msgs[0].Values["event_type"])

	raw, ok := msgs[0].Values["event"].(string)
	require.True(t, ok)

	var got events.Acquired
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.NotEqual(t, uuid.Nil, got.EventID)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "2024-06-15", got.Date)
	assert.True(t, got.Written)
	assert.Equal(t, "Scraped", got.Reason)
}

func TestPublisher_CustomStreamAndFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	pub := events.NewPublisher(client, "custom:stream", nil)
	require.NoError(t, pub.PublishAcquired(context.Background(), events.Acquired{RunID: "a"}))

	n, err := client.XLen(context.Background(), "custom:stream").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mr.Close()
	require.Error(t, pub.PublishAcquired(context.Background(), events.Acquired{RunID: "b"}))
}
