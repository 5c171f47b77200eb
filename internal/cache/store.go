// Package cache persists one puzzle record per calendar day.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

var (
	// ErrNotFound is returned by Get when no record exists for the date.
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt wraps values that cannot be decoded into a record.
	ErrCorrupt = errors.New("corrupt record")
)

// Store is the dated record store. Writes for the same date are last-write-wins;
// there is no coordination across dates.
type Store interface {
	// Get returns the record for date, or ErrNotFound.
	Get(ctx context.Context, date puzzle.Date) (*puzzle.Record, error)
	// Put writes rec under its date, overwriting any existing record.
	Put(ctx context.Context, rec *puzzle.Record) error
	// PutIfAbsent writes rec only if its date has no record yet and reports
	// whether it wrote.
	PutIfAbsent(ctx context.Context, rec *puzzle.Record) (bool, error)
	// ListRecent returns up to n records, most recent date first. Missing days
	// are simply absent.
	ListRecent(ctx context.Context, n int) ([]*puzzle.Record, error)
}

// Encode serialises a record as stored by every backend.
func Encode(rec *puzzle.Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("encode: nil record")
	}
	if rec.Date.IsZero() {
		return nil, fmt.Errorf("encode: %w", puzzle.ErrMissingDate)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", rec.Date, err)
	}
	return data, nil
}

// Decode is the inverse of Encode. Failures wrap ErrCorrupt.
func Decode(data []byte) (*puzzle.Record, error) {
	var rec puzzle.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if rec.Date.IsZero() {
		return nil, fmt.Errorf("%w: missing date", ErrCorrupt)
	}
	return &rec, nil
}

func sortRecentFirst(records []*puzzle.Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}
