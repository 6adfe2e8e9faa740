// Package chunker splits long scripts into bounded-length text chunks for
// per-chunk speech synthesis.
//
// Splits occur preferentially at paragraph breaks, then sentence breaks,
// then whitespace. A complete sentence is treated as an atomic unit and is
// never cut, matching the synthesis server's prosody expectations; only an
// unbroken run without any whitespace falls back to a hard character cut.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultMaxChars is the chunk bound used when no limit is configured. It
// sits below the speech server's 4096-character input limit.
const DefaultMaxChars = 4000

const paragraphSeparator = "\n\n"

// Chunk is an ordered, 1-indexed segment of a script.
type Chunk struct {
	Index int
	Text  string
}

// Chunker produces bounded-length chunks from script text.
type Chunker struct {
	maxChars int
}

// New creates a Chunker with the given maximum chunk length in characters.
// Non-positive values fall back to DefaultMaxChars.
func New(maxChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	return &Chunker{maxChars: maxChars}
}

// MaxChars returns the configured chunk bound.
func (c *Chunker) MaxChars() int {
	return c.maxChars
}

// Split divides a script into ordered chunks. An empty or whitespace-only
// script yields no chunks. Concatenating the chunk texts in order
// reproduces the script modulo whitespace normalization at split points.
func (c *Chunker) Split(script string) []Chunk {
	if strings.TrimSpace(script) == "" {
		return nil
	}

	var pieces []string

	for _, paragraph := range splitParagraphs(script) {
		pieces = append(pieces, c.splitParagraph(paragraph)...)
	}

	texts := packUnits(pieces, c.maxChars, paragraphSeparator)

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{Index: i + 1, Text: text}
	}

	return chunks
}

// splitParagraph returns the paragraph as a single piece when it fits, and
// otherwise packs its sentences into bounded pieces.
func (c *Chunker) splitParagraph(paragraph string) []string {
	if len(paragraph) <= c.maxChars {
		return []string{paragraph}
	}

	var units []string

	for _, sentence := range splitSentences(paragraph) {
		if len(sentence) <= c.maxChars || endsWithSentenceEnd(sentence) {
			// A complete sentence stays whole even when overlong.
			units = append(units, sentence)

			continue
		}

		units = append(units, splitAtWhitespace(sentence, c.maxChars)...)
	}

	return packUnits(units, c.maxChars, " ")
}

// packUnits greedily joins consecutive units into chunks no longer than
// maxChars. A single unit longer than maxChars becomes its own chunk.
func packUnits(units []string, maxChars int, separator string) []string {
	var (
		packed  []string
		current strings.Builder
	)

	for _, unit := range units {
		if current.Len() == 0 {
			current.WriteString(unit)

			continue
		}

		if current.Len()+len(separator)+len(unit) <= maxChars {
			current.WriteString(separator)
			current.WriteString(unit)

			continue
		}

		packed = append(packed, current.String())
		current.Reset()
		current.WriteString(unit)
	}

	if current.Len() > 0 {
		packed = append(packed, current.String())
	}

	return packed
}

// splitParagraphs splits a script at blank lines, dropping empty paragraphs.
func splitParagraphs(script string) []string {
	normalized := strings.ReplaceAll(script, "\r\n", "\n")

	var paragraphs []string

	for _, block := range strings.Split(normalized, "\n\n") {
		trimmed := strings.TrimSpace(block)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	return paragraphs
}

// splitSentences divides text at sentence-ending punctuation followed by
// whitespace or end of text. Trailing closing quotes and brackets stay
// attached to their sentence.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)

	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}

		// Absorb closing quotes or brackets after the terminator.
		end := i + 1
		for end < len(runes) && isClosing(runes[end]) {
			end++
		}

		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}

		sentence := strings.TrimSpace(string(runes[start:end]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}

		start = end
		i = end - 1
	}

	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}

// splitAtWhitespace packs words into pieces no longer than maxChars,
// hard-cutting any single word that exceeds the bound on its own.
func splitAtWhitespace(text string, maxChars int) []string {
	var units []string

	for _, word := range strings.Fields(text) {
		if len(word) <= maxChars {
			units = append(units, word)

			continue
		}

		units = append(units, hardCut(word, maxChars)...)
	}

	return packUnits(units, maxChars, " ")
}

// hardCut slices a word into rune-aligned pieces of at most maxChars bytes.
func hardCut(word string, maxChars int) []string {
	var (
		pieces  []string
		current strings.Builder
	)

	for _, r := range word {
		if current.Len()+len(string(r)) > maxChars && current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}

	return pieces
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’':
		return true
	default:
		return false
	}
}

// endsWithSentenceEnd reports whether text is a complete sentence: its
// final rune, after stripping closing quotes and brackets, is a sentence
// terminator. A mid-token period (a decimal, an abbreviation, a URL) does
// not qualify, so such runs stay eligible for whitespace splitting.
func endsWithSentenceEnd(text string) bool {
	runes := []rune(text)

	i := len(runes) - 1
	for i >= 0 && isClosing(runes[i]) {
		i--
	}

	return i >= 0 && isSentenceEnd(runes[i])
}
