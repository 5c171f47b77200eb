package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector matches the elements whose text forms a line-bearing block.
const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, div, td, dt, dd, blockquote, pre"

var blockTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "li": true, "div": true, "td": true, "dt": true, "dd": true,
	"blockquote": true, "pre": true,
}

type block struct {
	heading bool
	lines   []string
}

// collectBlocks returns the document's text blocks in document order. Leaf
// block elements are one block each. A block that also holds nested blocks
// contributes its own text runs as separate blocks between its children.
// Headings are always whole blocks so they can close a region.
func collectBlocks(doc *goquery.Document) []block {
	var blocks []block
	walkBlocks(doc.Selection, &blocks)
	return blocks
}

func walkBlocks(s *goquery.Selection, blocks *[]block) {
	var run strings.Builder
	flush := func() {
		if lines := splitLines(run.String()); len(lines) > 0 {
			*blocks = append(*blocks, block{lines: lines})
		}
		run.Reset()
	}

	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "head" || name == "#comment":
		case name == "#text":
			// Source newlines are layout whitespace; only <br> breaks a line.
			run.WriteString(strings.ReplaceAll(c.Text(), "\n", " "))
		case name == "br":
			run.WriteByte('\n')
		case isHeading(name):
			flush()
			*blocks = append(*blocks, block{heading: true, lines: blockLines(c)})
		case c.Find(blockSelector).Length() > 0:
			flush()
			walkBlocks(c, blocks)
		case blockTags[name]:
			flush()
			*blocks = append(*blocks, block{lines: blockLines(c)})
		default:
			writeText(c, &run)
		}
	})
	flush()
}

func isHeading(name string) bool {
	return len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6'
}

// blockLines returns the normalised non-empty lines of s, split at <br>.
func blockLines(s *goquery.Selection) []string {
	var sb strings.Builder
	writeText(s, &sb)
	return splitLines(sb.String())
}

func splitLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := normalizeLine(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func writeText(s *goquery.Selection, sb *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			// Source newlines are layout whitespace; only <br> breaks a line.
			sb.WriteString(strings.ReplaceAll(c.Text(), "\n", " "))
		case "br":
			sb.WriteByte('\n')
		case "#comment", "head":
		default:
			writeText(c, sb)
		}
	})
}

// anchoredRegion returns the lines following the first occurrence of anchor: the
// rest of the anchor's own block, then following blocks up to the next heading.
func anchoredRegion(blocks []block, anchor string) ([]string, bool) {
	for i, b := range blocks {
		for j, line := range b.lines {
			idx := indexFold(line, anchor)
			if idx < 0 {
				continue
			}

			var region []string
			rest := strings.TrimLeft(line[idx+len(anchor):], " ?!.:-–—")
			if rest != "" {
				region = append(region, rest)
			}
			region = append(region, b.lines[j+1:]...)
			for _, next := range blocks[i+1:] {
				if next.heading {
					break
				}
				region = append(region, next.lines...)
			}
			return region, true
		}
	}
	return nil, false
}

// indexFold is a case-insensitive strings.Index for a normalised substr.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := range s {
		if i+n > len(s) {
			break
		}
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
