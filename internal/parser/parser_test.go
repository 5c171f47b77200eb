package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/parser"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

var testDate = puzzle.MustParseDate("2024-06-15")

// brParagraph lists the answers in the anchor paragraph itself, split by <br>.
const brParagraph = `<html><body>
<p>what is the answer to connections today?<br>
Purple group: "Fire ___": ALARM, DRILL, WORKS, PLACE<br>
Yellow category — Greetings — hello, hi, hey, howdy<br>
Green: Dogs: beagle, poodle, boxer, pug<br>
Blue - Trees - oak, elm, ash, fir
</p>
<h3>Next</h3>
</body></html>`

// noThemes lists only words, in a div region following a heading anchor.
const noThemes = `<html><body>
<h2>What is the answer to Connections today</h2>
<div>
  <p>Yellow: ONE, TWO, THREE, FOUR</p>
  <p>Green: RED, BLUE, PINK, GOLD</p>
  <p>Blue: CAT, DOG, COW, HEN</p>
  <p>Purple: X-RAY, T-BONE, U-TURN, E-MAIL</p>
</div>
</body></html>`

// mixedContainer keeps the anchor as direct text of a div that also holds the
// group paragraphs, with trailing narrative after them.
const mixedContainer = `<html><body><div>What is the answer to Connections today?
<p>Yellow: Fish: BASS, PIKE, SOLE, CARP</p>
<p>Green: Keys: SHIFT, TAB, ENTER, ESCAPE</p>
<span>Two more to go.</span>
<p>Blue: Planets: MARS, VENUS, EARTH, SATURN</p>
<p>Purple: ___ ball: FOOT, BASKET, HAND, SNOW</p>
That's all for today.</div></body></html>`

// unnormalised needs width folding, whitespace collapsing and quote stripping.
const unnormalised = `<h2>WHAT IS THE ANSWER TO CONNECTIONS TODAY</h2><ul>` +
	`<li>Yellow: ｆｕｌｌ, wide,  spaced   out , "quoted"</li>` +
	`<li>Green: a, b, c, d.</li><li>Blue: e, f, g, h</li><li>Purple: i, j, k, l</li></ul>`

func readFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParse_ArticleFixture(t *testing.T) {
	rec, err := parser.Parse(readFixture(t, "answer_article.html"), testDate)
	require.NoError(t, err)

	assert.Equal(t, testDate, rec.Date)
	assert.Equal(t, puzzle.ProvenanceScraped, rec.Provenance)
	require.Len(t, rec.Groups, 4)

	assert.Equal(t, puzzle.Group{
		Theme: "Fish", Difficulty: puzzle.DifficultyYellow,
		Words: []string{"BASS", "PIKE", "SOLE", "CARP"},
	}, rec.Groups[0])
	assert.Equal(t, "Keyboard keys", rec.Groups[1].Theme)
	assert.Equal(t, []string{"MARS", "VENUS", "EARTH", "SATURN"}, rec.Groups[2].Words)
	assert.Equal(t, puzzle.Group{
		Theme: "___ ball", Difficulty: puzzle.DifficultyPurple,
		Words: []string{"FOOT", "BASKET", "HAND", "SNOW"},
	}, rec.Groups[3])
}

func TestParse_BreakSeparatedLinesInAnchorBlock(t *testing.T) {
	rec, err := parser.Parse(brParagraph, testDate)
	require.NoError(t, err)

	require.Len(t, rec.Groups, 4)
	// Canonical order regardless of listing order.
	assert.Equal(t, puzzle.DifficultyYellow, rec.Groups[0].Difficulty)
	assert.Equal(t, "Greetings", rec.Groups[0].Theme)
	assert.Equal(t, []string{"HELLO", "HI", "HEY", "HOWDY"}, rec.Groups[0].Words)
	assert.Equal(t, "Dogs", rec.Groups[1].Theme)
	assert.Equal(t, "Trees", rec.Groups[2].Theme)
	assert.Equal(t, "Fire ___", rec.Groups[3].Theme)
	assert.Equal(t, []string{"ALARM", "DRILL", "WORKS", "PLACE"}, rec.Groups[3].Words)
}

func TestParse_AnchorInContainerText(t *testing.T) {
	rec, err := parser.Parse(mixedContainer, testDate)
	require.NoError(t, err)

	require.Len(t, rec.Groups, 4)
	assert.Equal(t, "Fish", rec.Groups[0].Theme)
	assert.Equal(t, "Keys", rec.Groups[1].Theme)
	assert.Equal(t, []string{"MARS", "VENUS", "EARTH", "SATURN"}, rec.Groups[2].Words)
	assert.Equal(t, []string{"FOOT", "BASKET", "HAND", "SNOW"}, rec.Groups[3].Words)
}

func TestParse_WordsWithoutThemes(t *testing.T) {
	rec, err := parser.Parse(noThemes, testDate)
	require.NoError(t, err)

	for _, g := range rec.Groups {
		assert.Empty(t, g.Theme)
	}
	assert.Equal(t, []string{"X-RAY", "T-BONE", "U-TURN", "E-MAIL"}, rec.Groups[3].Words)
}

func TestParse_ValidFixturesYieldSixteenUniqueWords(t *testing.T) {
	fixtures := map[string]string{
		"article":    readFixture(t, "answer_article.html"),
		"br":         brParagraph,
		"no themes":  noThemes,
		"normalised": unnormalised,
		"mixed":      mixedContainer,
	}

	for name, html := range fixtures {
		t.Run(name, func(t *testing.T) {
			rec, err := parser.Parse(html, testDate)
			require.NoError(t, err)
			require.Len(t, rec.Groups, puzzle.GroupCount)

			seen := make(map[string]bool)
			for _, g := range rec.Groups {
				require.Len(t, g.Words, puzzle.WordsPerGroup)
				for _, w := range g.Words {
					assert.False(t, seen[w], "duplicate %q", w)
					seen[w] = true
				}
			}
			assert.Len(t, seen, puzzle.GroupCount*puzzle.WordsPerGroup)
		})
	}
}

func TestParse_Normalisation(t *testing.T) {
	rec, err := parser.Parse(unnormalised, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"FULL", "WIDE", "SPACED OUT", "QUOTED"}, rec.Groups[0].Words)
	assert.Equal(t, []string{"A", "B", "C", "D"}, rec.Groups[1].Words)
}

func TestParse_AnchorNotFound(t *testing.T) {
	inputs := []string{
		"",
		"<html><body><p>Yellow: A, B, C, D</p></body></html>",
		// Anchor text inside a script is not document content.
		`<html><head><script>var a = "What is the answer to Connections today";</script></head></html>`,
		// Nor is the page title.
		`<html><head><title>What is the answer to Connections today</title></head><body>Plain text</body></html>`,
		`<html><head><title>What is the answer to Connections today</title></head>` +
			`<body><p>Yellow: A, B, C, D</p></body></html>`,
	}

	for _, html := range inputs {
		rec, err := parser.Parse(html, testDate)
		require.Error(t, err)
		assert.Nil(t, rec)
		assert.True(t, errors.Is(err, parser.ErrAnchorNotFound), "got %v", err)
		assert.Equal(t, parser.KindAnchorNotFound, parser.Kind(err))
	}
}

func TestParse_MalformedGroups(t *testing.T) {
	const anchor = `<h2>What is the answer to Connections today</h2>`
	tests := map[string]string{
		"three groups": anchor + `<p>Yellow: a, b, c, d</p><p>Green: e, f, g, h</p><p>Blue: i, j, k, l</p>`,
		"five words": anchor + `<p>Yellow: a, b, c, d, z</p><p>Green: e, f, g, h</p>` +
			`<p>Blue: i, j, k, l</p><p>Purple: m, n, o, p</p>`,
		"three words": anchor + `<p>Yellow: a, b, c</p><p>Green: e, f, g, h</p>` +
			`<p>Blue: i, j, k, l</p><p>Purple: m, n, o, p</p>`,
		"empty word": anchor + `<p>Yellow: a, , c, d</p><p>Green: e, f, g, h</p>` +
			`<p>Blue: i, j, k, l</p><p>Purple: m, n, o, p</p>`,
		"colour twice": anchor + `<p>Yellow: a, b, c, d</p><p>Yellow: e, f, g, h</p>` +
			`<p>Blue: i, j, k, l</p><p>Purple: m, n, o, p</p>`,
		"region ends at heading": anchor + `<p>Yellow: a, b, c, d</p><p>Green: e, f, g, h</p>` +
			`<h3>Elsewhere</h3><p>Blue: i, j, k, l</p><p>Purple: m, n, o, p</p>`,
		"anchor only": anchor,
	}

	for name, html := range tests {
		t.Run(name, func(t *testing.T) {
			rec, err := parser.Parse(html, testDate)
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.True(t, errors.Is(err, parser.ErrMalformedGroup), "got %v", err)
			assert.Equal(t, parser.KindMalformedGroup, parser.Kind(err))
		})
	}
}

func TestParse_DuplicateWord(t *testing.T) {
	const anchor = `<h2>What is the answer to Connections today</h2>`
	tests := map[string]string{
		"across groups": anchor + `<p>Yellow: a, b, c, d</p><p>Green: e, f, g, A</p>` +
			`<p>Blue: i, j, k, l</p><p>Purple: m, n, o, p</p>`,
		"within group": anchor + `<p>Yellow: a, b, c, c.</p><p>Green: e, f, g, h</p>` +
			`<p>Blue: i, j, k, l</p><p>Purple: m, n, o, p</p>`,
	}

	for name, html := range tests {
		t.Run(name, func(t *testing.T) {
			rec, err := parser.Parse(html, testDate)
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.True(t, errors.Is(err, parser.ErrDuplicateWord), "got %v", err)
			assert.Equal(t, parser.KindDuplicateWord, parser.Kind(err))
		})
	}
}

func TestParser_WithAnchorPhrase(t *testing.T) {
	html := `<h2>Here are the answers</h2><p>Yellow: a, b, c, d</p><p>Green: e, f, g, h</p>` +
		`<p>Blue: i, j, k, l</p><p>Purple: m, n, o, p</p>`

	_, err := parser.Parse(html, testDate)
	require.ErrorIs(t, err, parser.ErrAnchorNotFound)

	rec, err := parser.New(parser.WithAnchorPhrase("here are  the ANSWERS")).Parse(html, testDate)
	require.NoError(t, err)
	assert.Len(t, rec.Groups, 4)
}

func TestKind(t *testing.T) {
	assert.Empty(t, parser.Kind(nil))
	assert.Equal(t, parser.KindUnknown, parser.Kind(errors.New("boom")))
	assert.Equal(t, parser.KindMalformedGroup, parser.Kind(puzzle.ErrMalformedGroup))
}
