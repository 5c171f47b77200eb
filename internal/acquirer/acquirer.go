// Package acquirer fetches the answer article for a date, parses it and writes
// the outcome to the cache. A successful parse always overwrites; a failure only
// leaves a backup record when the date has nothing cached yet.
package acquirer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/cache"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/events"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/parser"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

// publishTimeout bounds event publishing after a run.
const publishTimeout = 5 * time.Second

// Reason classifies an acquisition outcome.
type Reason string

const (
	ReasonScraped        Reason = "Scraped"
	ReasonFetchFailure   Reason = "FetchFailure"
	ReasonAnchorNotFound Reason = parser.KindAnchorNotFound
	ReasonMalformedGroup Reason = parser.KindMalformedGroup
	ReasonDuplicateWord  Reason = parser.KindDuplicateWord
	ReasonParseFailure   Reason = "ParseFailure"
	ReasonStoreFailure   Reason = "StoreFailure"
	ReasonInvalidDate    Reason = "InvalidDate"
)

// Result is the classified outcome of one Acquire call.
type Result struct {
	RunID string      `json:"runId"`
	Date  puzzle.Date `json:"date"`
	// Written reports whether the cache entry for Date was written by this run.
	Written bool `json:"written"`
	// Provenance is what this run produced: scraped on success, backup otherwise.
	Provenance puzzle.Provenance `json:"provenance"`
	Reason     Reason            `json:"reason"`
	SourceURL  string            `json:"sourceUrl"`
	// Err is the underlying failure, nil when Reason is Scraped.
	Err error `json:"-"`
}

// Succeeded reports whether the run stored a scraped record.
func (r Result) Succeeded() bool {
	return r.Reason == ReasonScraped && r.Written
}

// Recorder receives run metrics.
type Recorder interface {
	RecordAcquire(reason string, written bool)
	ObserveFetch(d time.Duration)
}

// EventPublisher receives one event per run.
type EventPublisher interface {
	PublishAcquired(ctx context.Context, event events.Acquired) error
}

// Source locates the daily article.
type Source struct {
	BaseURL    string
	SlugPrefix string
}

// URL returns the article URL for date:
// <base>/<slug>-<month>-<day>-<year>, e.g. .../slug-june-5-2024.
func (s Source) URL(date puzzle.Date) string {
	return fmt.Sprintf("%s/%s-%s-%d-%d",
		strings.TrimRight(s.BaseURL, "/"),
		s.SlugPrefix,
		strings.ToLower(date.Month().String()),
		date.Day(),
		date.Year(),
	)
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithClock overrides the clock used for ScrapedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Acquirer) { a.now = now }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Acquirer) { a.recorder = r }
}

// WithPublisher sets the event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(a *Acquirer) { a.publisher = p }
}

// Acquirer runs fetch, parse and cache write for one date at a time. Concurrent
// runs for the same date race on the final Put; the last scraped write wins.
type Acquirer struct {
	source    Source
	fetcher   Fetcher
	parser    *parser.Parser
	store     cache.Store
	logger    logger.Logger
	now       func() time.Time
	recorder  Recorder
	publisher EventPublisher
}

// New creates an Acquirer.
func New(
	source Source,
	fetcher Fetcher,
	p *parser.Parser,
	store cache.Store,
	log logger.Logger,
	opts ...Option,
) *Acquirer {
	if p == nil {
		p = parser.New()
	}
	if log == nil {
		log = logger.NewNop()
	}
	a := &Acquirer{
		source:  source,
		fetcher: fetcher,
		parser:  p,
		store:   store,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire fetches, parses and stores the puzzle for date. It never returns an
// error separately; every exit path is a classified Result.
func (a *Acquirer) Acquire(ctx context.Context, date puzzle.Date) Result {
	res := Result{
		RunID:      uuid.NewString(),
		Date:       date,
		Provenance: puzzle.ProvenanceBackup,
		SourceURL:  a.source.URL(date),
	}
	log := a.logger.With(
		logger.String("run_id", res.RunID),
		logger.String("date", date.String()),
	)

	if date.IsZero() {
		res.Reason = ReasonInvalidDate
		res.Err = puzzle.ErrMissingDate
		return a.finish(ctx, log, res)
	}

	start := time.Now()
	html, err := a.fetcher.Fetch(ctx, res.SourceURL)
	a.observeFetch(time.Since(start))
	if err != nil {
		return a.finish(ctx, log, a.writeBackup(ctx, res, ReasonFetchFailure, err))
	}

	rec, err := a.parser.Parse(html, date)
	if err != nil {
		return a.finish(ctx, log, a.writeBackup(ctx, res, parseReason(err), err))
	}

	rec.ScrapedAt = a.now().UTC()
	rec.SourceURL = res.SourceURL
	res.Provenance = puzzle.ProvenanceScraped
	if putErr := a.store.Put(ctx, rec); putErr != nil {
		res.Reason = ReasonStoreFailure
		res.Err = putErr
		return a.finish(ctx, log, res)
	}

	res.Written = true
	res.Reason = ReasonScraped
	return a.finish(ctx, log, res)
}

// writeBackup stores a placeholder only when the date has no record, so an
// earlier scrape is never downgraded. A cancelled or expired run keeps its
// failure reason and leaves the cache untouched.
func (a *Acquirer) writeBackup(ctx context.Context, res Result, reason Reason, cause error) Result {
	res.Reason = reason
	res.Err = cause

	if ctx.Err() != nil {
		return res
	}

	backup := puzzle.NewBackup(res.Date, res.SourceURL, a.now().UTC(), string(reason))
	written, err := a.store.PutIfAbsent(ctx, backup)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.Err = errors.Join(cause, err)
			return res
		}
		res.Reason = ReasonStoreFailure
		res.Err = fmt.Errorf("write backup after %s: %w", reason, err)
		return res
	}
	res.Written = written
	return res
}

func parseReason(err error) Reason {
	if kind := parser.Kind(err); kind != parser.KindUnknown && kind != "" {
		return Reason(kind)
	}
	return ReasonParseFailure
}

func (a *Acquirer) finish(ctx context.Context, log logger.Logger, res Result) Result {
	fields := []logger.Field{
		logger.String("reason", string(res.Reason)),
		logger.Bool("written", res.Written),
		logger.String("provenance", res.Provenance.String()),
		logger.String("source_url", res.SourceURL),
	}
	switch {
	case res.Reason == ReasonScraped:
		log.Info("Puzzle acquired", fields...)
	case res.Reason == ReasonStoreFailure || res.Reason == ReasonInvalidDate:
		log.Error("Puzzle acquisition failed", append(fields, logger.Error(res.Err))...)
	default:
		log.Warn("Puzzle not available from source", append(fields, logger.Error(res.Err))...)
	}

	if a.recorder != nil {
		a.recorder.RecordAcquire(string(res.Reason), res.Written)
	}
	a.publish(ctx, log, res)
	return res
}

func (a *Acquirer) observeFetch(d time.Duration) {
	if a.recorder != nil {
		a.recorder.ObserveFetch(d)
	}
}

func (a *Acquirer) publish(ctx context.Context, log logger.Logger, res Result) {
	if a.publisher == nil {
		return
	}

	// The run's own context may already be cancelled or past its deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := a.publisher.PublishAcquired(pubCtx, events.Acquired{
		RunID:      res.RunID,
		Date:       res.Date.String(),
		Written:    res.Written,
		Provenance: res.Provenance.String(),
		Reason:     string(res.Reason),
		SourceURL:  res.SourceURL,
	})
	if err != nil {
		log.Warn("Failed to publish acquisition event", logger.Error(err))
	}
}
