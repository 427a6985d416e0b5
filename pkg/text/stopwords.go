package text

import (
	"bufio"
	"io"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// StopwordSet filters stemmed tokens against a configured stopword list.
// Membership testing is backed by a single Aho-Corasick automaton built once
// over the (already-stemmed) stopword patterns, rather than a per-token map
// probe, following the teacher's dual-purpose AC dictionary.
type StopwordSet struct {
	ac       ahocorasick.AhoCorasick
	words    map[string]struct{}
	hasWords bool
}

// NewStopwordSet builds a StopwordSet from a list of already-stemmed words.
func NewStopwordSet(stemmedWords []string) *StopwordSet {
	words := make(map[string]struct{}, len(stemmedWords))
	patterns := make([]string, 0, len(stemmedWords))
	for _, w := range stemmedWords {
		if w == "" {
			continue
		}
		if _, dup := words[w]; dup {
			continue
		}
		words[w] = struct{}{}
		patterns = append(patterns, w)
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})

	return &StopwordSet{
		ac:       builder.Build(patterns),
		words:    words,
		hasWords: len(patterns) > 0,
	}
}

// LoadStopwords reads one stemmed word per line (UTF-8), skipping blanks.
// The caller is responsible for stemming each line before (or after) loading
// if the file holds surface forms; Stem is applied by the caller, not here,
// so this function stays agnostic of the Stemmer capability.
func LoadStopwords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// IsStopword reports whether the exact stemmed token is a configured
// stopword, via a single whole-word Aho-Corasick match against the token
// itself. The plain set is kept alongside for Len/membership introspection.
func (s *StopwordSet) IsStopword(stemmedToken string) bool {
	if s == nil || !s.hasWords || stemmedToken == "" {
		return false
	}
	matches := s.ac.FindAll(stemmedToken)
	for _, m := range matches {
		if m.Start() == 0 && m.End() == len(stemmedToken) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct stopwords configured.
func (s *StopwordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// FilterTokens removes stopwords from a slice of already-stemmed tokens,
// reporting whether at least one token was removed.
func (s *StopwordSet) FilterTokens(tokens []string) (filtered []string, droppedAny bool) {
	if s == nil || !s.hasWords {
		return tokens, false
	}
	filtered = make([]string, 0, len(tokens))
	for _, t := range tokens {
		if s.IsStopword(t) {
			droppedAny = true
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered, droppedAny
}
