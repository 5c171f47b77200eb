// Package puzzle defines the daily puzzle record shared by the parser, the cache
// store, the acquirer and the resolver.
package puzzle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// GroupCount is the number of groups in a complete record.
	GroupCount = 4
	// WordsPerGroup is the number of words in every group.
	WordsPerGroup = 4

	// KeyPrefix prefixes every cache key.
	KeyPrefix = "puzzle-"
)

var (
	// ErrMalformedGroup reports a record whose groups are not four groups of four
	// words with each difficulty exactly once.
	ErrMalformedGroup = errors.New("malformed group")
	// ErrDuplicateWord reports a word appearing more than once across a record.
	ErrDuplicateWord = errors.New("duplicate word")
	// ErrMissingDate reports a record without a calendar day.
	ErrMissingDate = errors.New("missing date")
)

// Group is one category of the puzzle.
type Group struct {
	Theme      string     `json:"theme"`
	Difficulty Difficulty `json:"difficulty"`
	Words      []string   `json:"words"`
}

// Record is the solution for one calendar day.
type Record struct {
	Date       Date       `json:"date"`
	Groups     []Group    `json:"groups"`
	Provenance Provenance `json:"provenance"`
	ScrapedAt  time.Time  `json:"scrapedAt"`
	SourceURL  string     `json:"sourceUrl,omitempty"`
	// Note carries the failure reason on backup records.
	Note string `json:"note,omitempty"`
}

// Key returns the cache key of the record for date.
func Key(date Date) string {
	return KeyPrefix + date.String()
}

// DateFromKey is the inverse of Key.
func DateFromKey(key string) (Date, error) {
	rest, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return Date{}, fmt.Errorf("key %q: missing %q prefix", key, KeyPrefix)
	}
	return ParseDate(rest)
}

// Key returns the record's cache key.
func (r *Record) Key() string {
	return Key(r.Date)
}

// NewBackup returns a placeholder record for date. Backups carry no groups and
// are never served as the day's puzzle.
func NewBackup(date Date, sourceURL string, at time.Time, note string) *Record {
	return &Record{
		Date:       date,
		Provenance: ProvenanceBackup,
		ScrapedAt:  at,
		SourceURL:  sourceURL,
		Note:       note,
	}
}

// Validate checks the record invariants: a date, four groups covering every
// difficulty once, four non-empty words per group and sixteen distinct words.
// Provenance is not checked.
func (r *Record) Validate() error {
	if r.Date.IsZero() {
		return ErrMissingDate
	}
	if len(r.Groups) != GroupCount {
		return fmt.Errorf("%w: got %d groups, want %d", ErrMalformedGroup, len(r.Groups), GroupCount)
	}

	seenDifficulty := make(map[Difficulty]bool, GroupCount)
	seenWord := make(map[string]bool, GroupCount*WordsPerGroup)
	for i := range r.Groups {
		g := &r.Groups[i]
		if !g.Difficulty.Valid() {
			return fmt.Errorf("%w: group %d has no difficulty", ErrMalformedGroup, i)
		}
		if seenDifficulty[g.Difficulty] {
			return fmt.Errorf("%w: difficulty %s repeated", ErrMalformedGroup, g.Difficulty)
		}
		seenDifficulty[g.Difficulty] = true

		if len(g.Words) != WordsPerGroup {
			return fmt.Errorf("%w: %s group has %d words, want %d",
				ErrMalformedGroup, g.Difficulty, len(g.Words), WordsPerGroup)
		}
		for _, w := range g.Words {
			if strings.TrimSpace(w) == "" {
				return fmt.Errorf("%w: %s group has an empty word", ErrMalformedGroup, g.Difficulty)
			}
			folded := strings.ToUpper(w)
			if seenWord[folded] {
				return fmt.Errorf("%w: %q", ErrDuplicateWord, w)
			}
			seenWord[folded] = true
		}
	}
	return nil
}

// Words returns all words of the record in group order.
func (r *Record) Words() []string {
	words := make([]string, 0, len(r.Groups)*WordsPerGroup)
	for _, g := range r.Groups {
		words = append(words, g.Words...)
	}
	return words
}
