// Package suggest implements the Vocabulary Suggestion capability (spec
// §4.8, C9): a small, read-only, in-memory q-gram index built once over the
// distinct stemmed terms recorded in the MetaIndex, used to propose
// "did you mean" alternatives for a query term absent from the index. It is
// grounded on the teacher's q-gram machinery (pkg/qgram/indexer.go's
// ExtractGrams and pkg/qgram/candidates.go's gram-sharing candidate lookup),
// trimmed to plain Jaccard ranking — the WAND pruning, BM25F scoring, and
// compressed-postings machinery the teacher built around q-grams serve a
// separate fuzzy full-text scoring pipeline this spec does not call for.
package suggest

import (
	"sort"
	"strings"
)

const gramSize = 3

// Index is the vocabulary suggestion index: gram -> vocabulary terms
// containing it, plus each term's own gram set (for Jaccard denominator).
type Index struct {
	postings map[string][]string
	grams    map[string]map[string]struct{}
	terms    []string
}

// New builds a suggestion index over vocabulary, the distinct stemmed terms
// recorded by the Finalizer's MetaIndex (spec §4.8: "built once at Query
// Engine init from the vocabulary recorded in MetaIndex").
func New(vocabulary []string) *Index {
	idx := &Index{
		postings: make(map[string][]string),
		grams:    make(map[string]map[string]struct{}),
		terms:    append([]string(nil), vocabulary...),
	}
	for _, term := range vocabulary {
		g := gramSet(term)
		idx.grams[term] = g
		for gram := range g {
			idx.postings[gram] = append(idx.postings[gram], term)
		}
	}
	return idx
}

// gramSet extracts term's q-gram set (q=3, spec §4.8). Terms shorter than
// the gram size contribute the whole term as their single "gram" so they
// still participate in candidate generation.
func gramSet(term string) map[string]struct{} {
	set := make(map[string]struct{})
	if len(term) < gramSize {
		set[term] = struct{}{}
		return set
	}
	for i := 0; i <= len(term)-gramSize; i++ {
		set[term[i:i+gramSize]] = struct{}{}
	}
	return set
}

// Suggest returns up to n vocabulary terms nearest to term by q-gram Jaccard
// similarity, ranked descending (ties broken lexicographically, spec §4.8).
// Candidates are every vocabulary term sharing at least one gram with term;
// for a term shorter than the gram size, every vocabulary gram containing
// the whole term also yields candidates.
func (idx *Index) Suggest(term string, n int) []string {
	queryGrams := gramSet(term)
	if len(queryGrams) == 0 || n <= 0 {
		return nil
	}

	lookup := make([]string, 0, len(queryGrams))
	for gram := range queryGrams {
		lookup = append(lookup, gram)
	}
	if len(term) < gramSize {
		for gram := range idx.postings {
			if gram != term && strings.Contains(gram, term) {
				lookup = append(lookup, gram)
			}
		}
	}

	seen := make(map[string]struct{})
	var candidates []string
	for _, gram := range lookup {
		for _, candidate := range idx.postings[gram] {
			if candidate == term {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			candidates = append(candidates, candidate)
		}
	}

	type scored struct {
		term    string
		jaccard float64
	}
	results := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, scored{term: c, jaccard: jaccard(queryGrams, idx.grams[c])})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].jaccard != results[j].jaccard {
			return results[i].jaccard > results[j].jaccard
		}
		return results[i].term < results[j].term
	})

	if len(results) > n {
		results = results[:n]
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.term
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for g := range a {
		if _, ok := b[g]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Len returns the number of vocabulary terms indexed.
func (idx *Index) Len() int { return len(idx.terms) }
