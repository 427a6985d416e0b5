// Package vectorindex implements the Vector Neighbors capability (spec
// §4.9, C10): an HNSW index over each document's 32-dimensional hashed
// term-frequency feature vector, used to answer "documents related to this
// one" queries. It is adapted from the teacher's pkg/vector/store.go,
// re-keyed from arbitrary string ids to dense uint32 document ordinals and
// from embedding vectors to the hashed-bucket feature vectors this spec
// defines, but keeps the HNSW construction, Save/Load gob-encoding, and
// locking shape verbatim.
package vectorindex

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"sync"

	"github.com/fogfish/hnsw"
	"github.com/fogfish/hnsw/vector"
	"github.com/hack-pad/hackpadfs"
	kvector "github.com/kshard/vector"
)

// Dimensions is the fixed feature-vector width (spec §4.9: "hash the
// stemmed term to a bucket in [0,32)").
const Dimensions = 32

// TopTerms is how many of a document's highest-tf terms feed the feature
// vector (spec §4.9: "for each of the document's top 32 terms by tf").
const TopTerms = 32

// TermFrequency is one term's weight within a single document, the input to
// FeatureVector.
type TermFrequency struct {
	Term string
	TF   float64
}

// FeatureVector builds a document's 32-dim feature vector: its top
// TopTerms terms by tf are each hashed (FNV-1a) into a bucket in
// [0,Dimensions), accumulating tf into that bucket, then the whole vector
// is L2-normalized (spec §4.9).
func FeatureVector(terms []TermFrequency) []float32 {
	sorted := append([]TermFrequency(nil), terms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TF > sorted[j].TF })
	if len(sorted) > TopTerms {
		sorted = sorted[:TopTerms]
	}

	vec := make([]float64, Dimensions)
	for _, t := range sorted {
		bucket := hashBucket(t.Term)
		vec[bucket] += t.TF
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, Dimensions)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func hashBucket(term string) int {
	h := fnv.New32a()
	h.Write([]byte(term))
	return int(h.Sum32() % Dimensions)
}

// Store manages the HNSW index over document feature vectors and its
// persistence as a sidecar artifact (spec §4.9: serialized alongside the
// other finalize outputs).
type Store struct {
	Index   *hnsw.HNSW[vector.VF32]
	FS      hackpadfs.FS
	Path    string
	vectors map[uint32][]float32 // docOrdinal -> its own feature vector
	mu      sync.RWMutex
}

// NewStore creates a vector neighbor store, loading an existing index from
// path if present, or starting a fresh cosine-surfaced index otherwise.
func NewStore(fs hackpadfs.FS, path string) (*Store, error) {
	s := &Store{FS: fs, Path: path, vectors: make(map[uint32][]float32)}
	if err := s.Load(); err != nil {
		s.Index = hnsw.New[vector.VF32](vector.SurfaceVF32(kvector.Cosine()))
	}
	return s, nil
}

// Add inserts docOrdinal's feature vector.
func (s *Store) Add(docOrdinal uint32, vec []float32) error {
	if s.Index == nil {
		return fmt.Errorf("vectorindex: index not initialized")
	}
	if s.Index.Size() > 0 {
		dim := len(s.Index.Head().Vec)
		if len(vec) != dim {
			return fmt.Errorf("vectorindex: dimension mismatch: expected %d, got %d", dim, len(vec))
		}
	}
	s.Index.Insert(vector.VF32{Key: docOrdinal, Vec: vec})
	s.vectors[docOrdinal] = vec
	return nil
}

// Neighbors returns the k nearest document ordinals to vec. No key is
// excluded: if vec is itself an indexed point, its own ordinal can appear
// in the result.
func (s *Store) Neighbors(vec []float32, k int) ([]uint32, error) {
	if s.Index == nil {
		return nil, fmt.Errorf("vectorindex: index not initialized")
	}
	ef := k * 2
	if ef < 100 {
		ef = 100
	}
	if s.Index.Size() > 0 {
		dim := len(s.Index.Head().Vec)
		if len(vec) != dim {
			return nil, fmt.Errorf("vectorindex: dimension mismatch: expected %d, got %d", dim, len(vec))
		}
	}

	results := s.Index.Search(vector.VF32{Vec: vec}, k, ef)
	ids := make([]uint32, len(results))
	for i, r := range results {
		ids[i] = r.Key
	}
	return ids, nil
}

// VectorByKey returns the feature vector stored under docOrdinal, if any.
func (s *Store) VectorByKey(docOrdinal uint32) ([]float32, bool) {
	v, ok := s.vectors[docOrdinal]
	return v, ok
}

// persisted is the on-disk shape of a Store: the HNSW graph nodes (for
// Neighbors search) plus the plain docOrdinal->vector map (for
// VectorByKey), since HNSW's node type exposes no key-indexed lookup of
// its own.
type persisted struct {
	Nodes   hnsw.Nodes[vector.VF32]
	Vectors map[uint32][]float32
}

// Save persists the index to FS at Path.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Index == nil {
		return nil
	}

	var buf bytes.Buffer
	p := persisted{Nodes: s.Index.Nodes(), Vectors: s.vectors}
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("vectorindex: encode: %w", err)
	}
	return hackpadfs.WriteFullFile(s.FS, s.Path, buf.Bytes(), 0o644)
}

// Load reads the index from FS at Path.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := hackpadfs.ReadFile(s.FS, s.Path)
	if err != nil {
		return err
	}

	var p persisted
	if err := gob.NewDecoder(bytes.NewReader(content)).Decode(&p); err != nil {
		return fmt.Errorf("vectorindex: decode: %w", err)
	}
	s.Index = hnsw.FromNodes[vector.VF32](vector.SurfaceVF32(kvector.Cosine()), p.Nodes)
	if p.Vectors == nil {
		p.Vectors = make(map[uint32][]float32)
	}
	s.vectors = p.Vectors
	return nil
}
