// Package parser turns a puzzle answer article into a puzzle record. Parsing is
// pure: no I/O, and every failure is one of the sentinel errors below.
package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

// DefaultAnchorPhrase introduces the answer listing in the source article.
const DefaultAnchorPhrase = "What is the answer to Connections today"

var (
	// ErrAnchorNotFound reports a document without the anchor phrase.
	ErrAnchorNotFound = errors.New("anchor not found")
	// ErrMalformedGroup reports an answer listing that is not four labelled groups
	// of four words.
	ErrMalformedGroup = puzzle.ErrMalformedGroup
	// ErrDuplicateWord reports a word listed more than once.
	ErrDuplicateWord = puzzle.ErrDuplicateWord
)

// Failure kinds as reported by Kind.
const (
	KindAnchorNotFound = "AnchorNotFound"
	KindMalformedGroup = "MalformedGroup"
	KindDuplicateWord  = "DuplicateWord"
	KindUnknown        = "Unknown"
)

// Kind returns the failure kind of err, or "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAnchorNotFound):
		return KindAnchorNotFound
	case errors.Is(err, ErrDuplicateWord):
		return KindDuplicateWord
	case errors.Is(err, ErrMalformedGroup):
		return KindMalformedGroup
	default:
		return KindUnknown
	}
}

// Option configures a Parser.
type Option func(*Parser)

// WithAnchorPhrase overrides the phrase that introduces the answer listing.
func WithAnchorPhrase(phrase string) Option {
	return func(p *Parser) {
		if phrase = normalizeLine(phrase); phrase != "" {
			p.anchor = phrase
		}
	}
}

// Parser extracts puzzle records from article HTML. It is safe for concurrent use.
type Parser struct {
	anchor string
}

// New creates a parser.
func New(opts ...Option) *Parser {
	p := &Parser{anchor: DefaultAnchorPhrase}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses html with the default anchor phrase.
func Parse(html string, date puzzle.Date) (*puzzle.Record, error) {
	return New().Parse(html, date)
}

// Parse extracts the record for date from html. The returned record has scraped
// provenance; ScrapedAt and SourceURL are left for the caller.
func (p *Parser) Parse(html string, date puzzle.Date) (*puzzle.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrAnchorNotFound, err)
	}
	doc.Find("script, style, noscript, template").Remove()

	region, ok := anchoredRegion(collectBlocks(doc), p.anchor)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAnchorNotFound, p.anchor)
	}

	groups, err := extractGroups(region)
	if err != nil {
		return nil, err
	}

	record := &puzzle.Record{
		Date:       date,
		Groups:     groups,
		Provenance: puzzle.ProvenanceScraped,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// extractGroups reads the labelled group lines of region. Unlabelled lines are
// narrative and skipped.
func extractGroups(region []string) ([]puzzle.Group, error) {
	byDifficulty := make(map[puzzle.Difficulty]puzzle.Group, puzzle.GroupCount)
	for _, line := range region {
		g, ok := parseGroupLine(line)
		if !ok {
			continue
		}
		if _, dup := byDifficulty[g.Difficulty]; dup {
			return nil, fmt.Errorf("%w: %s listed twice", ErrMalformedGroup, g.Difficulty)
		}
		byDifficulty[g.Difficulty] = g
	}

	if len(byDifficulty) != puzzle.GroupCount {
		return nil, fmt.Errorf("%w: found %d labelled groups, want %d",
			ErrMalformedGroup, len(byDifficulty), puzzle.GroupCount)
	}

	groups := make([]puzzle.Group, 0, puzzle.GroupCount)
	for _, g := range byDifficulty {
		if len(g.Words) != puzzle.WordsPerGroup {
			return nil, fmt.Errorf("%w: %s group has %d words, want %d",
				ErrMalformedGroup, g.Difficulty, len(g.Words), puzzle.WordsPerGroup)
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Difficulty < groups[j].Difficulty
	})
	return groups, nil
}
