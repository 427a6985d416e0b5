// Package stem defines the pluggable Stemmer capability and a default
// Snowball-English implementation. Switching stemmers invalidates any index
// already built with a different one (spec §6).
package stem

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

// Stemmer reduces a token to its stemmed form.
type Stemmer interface {
	Stem(token string) string
}

// Snowball is the reference implementation, backed by Snowball English.
type Snowball struct{}

// Stem lowercases and stems token using the Snowball English algorithm.
// Tokenize (pkg/text) preserves case by design; lowercasing is the
// stemmer's job (spec §4.1: "the caller lowercases/stems").
func (Snowball) Stem(token string) string {
	return english.Stem(strings.ToLower(token), false)
}

// StemAll applies s to every token, preserving order.
func StemAll(s Stemmer, tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = s.Stem(t)
	}
	return out
}
