package embed

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits text into word tokens (runs of letters and digits) and
// single punctuation or symbol tokens. Whitespace separates tokens.
func Tokenize(text string) []string {
	var tokens []string
	for _, sp := range tokenSpans(text) {
		tokens = append(tokens, text[sp[0]:sp[1]])
	}
	return tokens
}

// Truncate keeps the first maxTokens tokens of text, preserving the
// original spacing between them. maxTokens <= 0 returns text unchanged.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	spans := tokenSpans(text)
	if len(spans) <= maxTokens {
		return text
	}
	return strings.TrimSpace(text[:spans[maxTokens-1][1]])
}

// EstimateTokens approximates a subword token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// tokenSpans returns [start, end) byte offsets of each token.
func tokenSpans(text string) [][2]int {
	var spans [][2]int
	start := -1
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case isWordRune(r):
			if start < 0 {
				start = i
			}
		default:
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
			if !unicode.IsSpace(r) {
				spans = append(spans, [2]int{i, i + size})
			}
		}
		i += size
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}
