package puzzle

import (
	"fmt"
	"strings"
)

// Provenance records how a cached record was obtained.
type Provenance uint8

const (
	// ProvenanceUnknown covers legacy or malformed entries. It is the zero value so
	// records written without a provenance decode as unknown.
	ProvenanceUnknown Provenance = iota
	// ProvenanceScraped marks a record parsed from the live source.
	ProvenanceScraped
	// ProvenanceBackup marks a placeholder written after a failed acquisition.
	ProvenanceBackup
)

var provenanceNames = map[Provenance]string{
	ProvenanceUnknown: "unknown",
	ProvenanceScraped: "scraped",
	ProvenanceBackup:  "backup",
}

// String returns the provenance name, or "unknown" for an out-of-range value.
func (p Provenance) String() string {
	if name, ok := provenanceNames[p]; ok {
		return name
	}
	return provenanceNames[ProvenanceUnknown]
}

// ParseProvenance maps text to a provenance. Unrecognised text is unknown.
func ParseProvenance(s string) Provenance {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scraped":
		return ProvenanceScraped
	case "backup":
		return ProvenanceBackup
	default:
		return ProvenanceUnknown
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Provenance) UnmarshalText(text []byte) error {
	*p = ParseProvenance(string(text))
	return nil
}

// Difficulty is one of the four canonical difficulty tiers.
type Difficulty uint8

// Difficulty tiers, easiest first. The zero value is not a valid tier.
const (
	// DifficultyYellow is the most straightforward group.
	DifficultyYellow Difficulty = iota + 1
	// DifficultyGreen is the second tier.
	DifficultyGreen
	// DifficultyBlue is the third tier.
	DifficultyBlue
	// DifficultyPurple is the trickiest group.
	DifficultyPurple
)

// Difficulties lists the tiers in canonical order, easiest first.
var Difficulties = []Difficulty{DifficultyYellow, DifficultyGreen, DifficultyBlue, DifficultyPurple}

var difficultyNames = map[Difficulty]string{
	DifficultyYellow: "yellow",
	DifficultyGreen:  "green",
	DifficultyBlue:   "blue",
	DifficultyPurple: "purple",
}

// String returns the tier name, or "unknown" for an invalid tier.
func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether d is one of the canonical tiers.
func (d Difficulty) Valid() bool {
	_, ok := difficultyNames[d]
	return ok
}

// ParseDifficulty maps a colour name (any case) to its tier.
func ParseDifficulty(s string) (Difficulty, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range difficultyNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognised text decodes
// to the zero tier, which fails Record.Validate rather than the decode.
func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		parsed = 0
	}
	*d = parsed
	return nil
}
