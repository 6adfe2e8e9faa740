package chunker

import (
	"regexp"
	"strings"
)

// Typographic characters normalized to their ASCII forms before synthesis.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsis     = "..."
	ellipsisChar = "…"
)

var intraParagraphWhitespace = regexp.MustCompile(`[ \t]*\n[ \t]*|[ \t]+`)

var typographyReplacer = strings.NewReplacer(
	emDash, "-",
	enDash, "-",
	figureDash, "-",
	ellipsisChar, ellipsis,
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
)

// NormalizeScript prepares raw script text for chunking: typographic
// punctuation becomes ASCII, and whitespace inside each paragraph collapses
// to single spaces. Paragraph boundaries (blank lines) are preserved so the
// chunker can still prefer them as split points.
func NormalizeScript(script string) string {
	normalized := typographyReplacer.Replace(script)

	paragraphs := splitParagraphs(normalized)
	for i, paragraph := range paragraphs {
		paragraphs[i] = intraParagraphWhitespace.ReplaceAllString(paragraph, " ")
	}

	return strings.Join(paragraphs, paragraphSeparator)
}
