// Package resolver decides which cached record answers "today's puzzle".
//
// The decision is a bounded walk back from today: the first day holding a
// usable record wins. Backup placeholders and records that fail validation are
// never served.
package resolver

import (
	"context"
	"errors"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/cache"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

// DefaultLookback is the number of prior days searched after today.
const DefaultLookback = 7

// recentMaxOffset is the largest offset still classified as recent.
const recentMaxOffset = 2

// NotAvailableMessage is shown when nothing in the window can be served.
const NotAvailableMessage = "today's puzzle is not yet available"

// storeUnavailableMessage is shown when no lookup in the window succeeded.
const storeUnavailableMessage = "puzzle store is unavailable"

// Freshness classifies how old the served record is.
type Freshness string

const (
	FreshnessFresh  Freshness = "fresh"
	FreshnessRecent Freshness = "recent"
	FreshnessStale  Freshness = "stale"
)

// ClassifyFreshness maps a day offset to its freshness.
func ClassifyFreshness(offset int) Freshness {
	switch {
	case offset <= 0:
		return FreshnessFresh
	case offset <= recentMaxOffset:
		return FreshnessRecent
	default:
		return FreshnessStale
	}
}

// Reason explains an unsuccessful resolution.
type Reason string

const (
	ReasonNoDataAvailable  Reason = "NoDataAvailable"
	ReasonStoreUnavailable Reason = "StoreUnavailable"
)

// Resolved is the answer to "what is today's puzzle". On success the record's
// fields are flattened into the JSON object next to the metadata.
type Resolved struct {
	Success    bool        `json:"success"`
	ActualDate puzzle.Date `json:"actualDate,omitzero"`
	IsToday    bool        `json:"isToday"`
	Freshness  Freshness   `json:"freshness,omitempty"`
	Reason     Reason      `json:"reason,omitempty"`
	Message    string      `json:"message,omitempty"`
	*puzzle.Record
}

// Candidate is the lookup outcome for one day of the window.
type Candidate struct {
	Record *puzzle.Record
	// Err is a lookup failure other than absence.
	Err error
}

// Select picks the first usable record from candidates, where candidates[i] is
// the lookup for today-i. It has no I/O.
func Select(today puzzle.Date, candidates []Candidate) Resolved {
	failures := 0
	for offset, c := range candidates {
		if c.Err != nil {
			failures++
			continue
		}
		if !usable(c.Record) {
			continue
		}
		return Resolved{
			Success:    true,
			ActualDate: c.Record.Date,
			IsToday:    offset == 0,
			Freshness:  ClassifyFreshness(offset),
			Record:     c.Record,
		}
	}

	if len(candidates) > 0 && failures == len(candidates) {
		return Resolved{Reason: ReasonStoreUnavailable, Message: storeUnavailableMessage}
	}
	return Resolved{Reason: ReasonNoDataAvailable, Message: NotAvailableMessage}
}

// usable reports whether rec may be served. Unknown provenance is served only
// when the record is structurally valid.
func usable(rec *puzzle.Record) bool {
	if rec == nil || rec.Provenance == puzzle.ProvenanceBackup {
		return false
	}
	return rec.Validate() == nil
}

// Recorder receives resolver outcomes.
type Recorder interface {
	RecordResolve(outcome string)
}

// Resolver reads the window from a store and applies Select.
type Resolver struct {
	store    cache.Store
	lookback int
	logger   logger.Logger
	recorder Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookback sets the number of prior days searched. Negative values are
// treated as zero.
func WithLookback(days int) Option {
	return func(r *Resolver) { r.lookback = max(days, 0) }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) { r.recorder = rec }
}

// New creates a Resolver.
func New(store cache.Store, log logger.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Resolver{store: store, lookback: DefaultLookback, logger: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookback returns the number of prior days searched.
func (r *Resolver) Lookback() int {
	return r.lookback
}

// Resolve returns the best record for today. Lookups stop at the first usable
// record; corrupt entries count as unusable rather than as store failures.
func (r *Resolver) Resolve(ctx context.Context, today puzzle.Date) Resolved {
	candidates := make([]Candidate, 0, r.lookback+1)
	for offset := 0; offset <= r.lookback; offset++ {
		date := today.AddDays(-offset)
		c := r.lookup(ctx, date)
		candidates = append(candidates, c)
		if c.Err == nil && usable(c.Record) {
			break
		}
	}

	res := Select(today, candidates)
	r.report(today, res)
	return res
}

func (r *Resolver) lookup(ctx context.Context, date puzzle.Date) Candidate {
	rec, err := r.store.Get(ctx, date)
	switch {
	case err == nil:
		return Candidate{Record: rec}
	case errors.Is(err, cache.ErrNotFound):
		return Candidate{}
	case errors.Is(err, cache.ErrCorrupt):
		r.logger.Warn("Skipping corrupt cache entry",
			logger.String("date", date.String()),
			logger.Error(err),
		)
		return Candidate{}
	default:
		r.logger.Error("Cache lookup failed",
			logger.String("date", date.String()),
			logger.Error(err),
		)
		return Candidate{Err: err}
	}
}

func (r *Resolver) report(today puzzle.Date, res Resolved) {
	outcome := string(res.Freshness)
	if !res.Success {
		outcome = string(res.Reason)
	}
	if r.recorder != nil {
		r.recorder.RecordResolve(outcome)
	}

	if res.Success {
		r.logger.Debug("Resolved puzzle",
			logger.String("today", today.String()),
			logger.String("actual_date", res.ActualDate.String()),
			logger.String("freshness", outcome),
		)
		return
	}
	r.logger.Info("No puzzle to serve",
		logger.String("today", today.String()),
		logger.String("reason", outcome),
		logger.Int("lookback_days", r.lookback),
	)
}
