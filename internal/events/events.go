// Package events publishes puzzle acquisition events to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
)

// EventTypeAcquired is emitted after every acquisition attempt.
const EventTypeAcquired = "puzzle.acquired"

// DefaultStream is the stream events are appended to.
const DefaultStream = "puzzle:events"

// Acquired describes the outcome of one acquisition run.
type Acquired struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	Date       string    `json:"date"`
	Written    bool      `json:"written"`
	Provenance string    `json:"provenance"`
	Reason     string    `json:"reason"`
	SourceURL  string    `json:"source_url,omitempty"`
}

// Publisher appends events to a Redis stream. A nil *Publisher is a no-op.
type Publisher struct {
	client *redis.Client
	stream string
	log    logger.Logger
	now    func() time.Time
}

// NewPublisher creates a publisher. Returns nil if client is nil.
func NewPublisher(client *redis.Client, stream string, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if stream == "" {
		stream = DefaultStream
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Publisher{client: client, stream: stream, log: log, now: time.Now}
}

// PublishAcquired sends an acquisition event to the stream.
func (p *Publisher) PublishAcquired(ctx context.Context, event Acquired) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.EventType == "" {
		event.EventType = EventTypeAcquired
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_type": event.EventType,
			"event":      string(payload),
		},
	})
	if publishErr := result.Err(); publishErr != nil {
		p.log.Error("Failed to publish event",
			logger.String("event_type", event.EventType),
			logger.String("run_id", event.RunID),
			logger.Error(publishErr),
		)
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.log.Debug("Published acquisition event",
		logger.String("run_id", event.RunID),
		logger.String("date", event.Date),
		logger.String("stream_id", result.Val()),
	)
	return nil
}
