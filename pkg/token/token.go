// Package token implements the tokenizer used to turn document content
// and search queries into the terms the inverted index is keyed by.
package token

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text, splits it on runs of ASCII whitespace, and
// strips every non-alphanumeric codepoint from each piece. Pieces that
// become empty after stripping are dropped. The result preserves input
// order and the function has no side effects: same input, same output.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\v' || r == '\f' || r == '\r'
	})

	tokens := make([]string, 0, len(fields))
	var b strings.Builder
	for _, field := range fields {
		b.Reset()
		for _, r := range field {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
		}
	}
	return tokens
}
