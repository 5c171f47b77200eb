package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

// groupLinePattern matches "<Color>[ group|category]<sep> <body>".
var groupLinePattern = regexp.MustCompile(
	`(?i)^(yellow|green|blue|purple)(?:\s+(?:group|category))?\s*[:\-–—]\s*(.+)$`,
)

// themeSeparators split the theme from the word list. A plain hyphen only counts
// when spaced so hyphenated words survive.
var themeSeparators = []string{":", "–", "—", " - "}

const quoteChars = "\"'“”‘’«»"

// normalizeLine applies NFKC and collapses whitespace.
func normalizeLine(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// parseGroupLine parses a labelled group line. ok is false for lines that do not
// start with a difficulty label.
func parseGroupLine(line string) (puzzle.Group, bool) {
	line = strings.TrimLeftFunc(line, func(r rune) bool { return !unicode.IsLetter(r) })
	m := groupLinePattern.FindStringSubmatch(line)
	if m == nil {
		return puzzle.Group{}, false
	}
	difficulty, err := puzzle.ParseDifficulty(m[1])
	if err != nil {
		return puzzle.Group{}, false
	}

	theme, rawWords := splitThemeAndWords(m[2])
	upper := cases.Upper(language.Und)
	words := make([]string, 0, len(rawWords))
	for _, raw := range rawWords {
		words = append(words, upper.String(cleanWord(raw)))
	}
	return puzzle.Group{Theme: theme, Difficulty: difficulty, Words: words}, true
}

// splitThemeAndWords separates an optional theme from the comma-separated words.
// The theme ends at the last separator before the first comma.
func splitThemeAndWords(body string) (string, []string) {
	head := body
	if comma := strings.IndexByte(body, ','); comma >= 0 {
		head = body[:comma]
	}

	cut, sepLen := -1, 0
	for _, sep := range themeSeparators {
		if i := strings.LastIndex(head, sep); i > cut {
			cut, sepLen = i, len(sep)
		}
	}

	theme := ""
	if cut >= 0 {
		theme = cleanTheme(body[:cut])
		body = body[cut+sepLen:]
	}
	return theme, strings.Split(body, ",")
}

func cleanTheme(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), quoteChars))
}

func cleanWord(s string) string {
	s = strings.Trim(strings.TrimSpace(s), quoteChars)
	s = strings.TrimRight(s, ".")
	s = strings.Trim(strings.TrimSpace(s), quoteChars)
	return normalizeLine(s)
}
