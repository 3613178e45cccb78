// Package extract implements the deterministic text scans that turn a
// free-text description of a gift recipient into profile signals: age,
// gender, interest phrases, and dislikes. Nothing here calls out to a model.
package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits text into whitespace-delimited tokens, preserving the
// original casing and order.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// isWordRune mirrors the \w class: letters, digits, and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// boundaryBefore reports whether a word boundary precedes byte offset i.
func boundaryBefore(s string, i int) bool {
	if i <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

// boundaryAfter reports whether a word boundary follows byte offset j.
func boundaryAfter(s string, j int) bool {
	if j >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[j:])
	return !isWordRune(r)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
