package text

import "github.com/orsinium-labs/stopwords"

// DefaultEnglishStopwords returns the reference English stopword list that
// cmd/query stems and hands to the query engine (spec §6). orsinium-labs/stopwords keeps its per-language lists as plain
// `map[string]struct{}`-shaped sets, so they're rangeable directly; the
// caller still owns stemming each entry before handing the result to
// NewStopwordSet, exactly as LoadStopwords' contract already requires.
func DefaultEnglishStopwords() []string {
	words := make([]string, 0, len(stopwords.English))
	for w := range stopwords.English {
		words = append(words, w)
	}
	return words
}
