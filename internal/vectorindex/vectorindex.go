// Package vectorindex is an in-memory nearest-neighbor store over embedding
// vectors. Document corpora are small (hundreds of chunks), so an exact
// linear-scan over squared Euclidean distance is used.
package vectorindex

import (
	"fmt"
	"sort"
	"sync"

	"tutor-rag/internal/models"
)

// Record pairs one stored vector with the metadata needed to build an answer.
type Record struct {
	Text       string
	Page       int
	ChunkIndex int
	Kind       models.ChunkKind
}

// Result is one search hit. Distance is squared L2, callers must not assume
// cosine similarity scaling.
type Result struct {
	Record   Record
	Distance float32
}

// Index stores vectors and records in insertion order. Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	records   []Record
}

func New(dimension int) *Index {
	return &Index{dimension: dimension}
}

// Add appends vectors with their records. The two slices must have equal
// length; adding nothing is a no-op.
func (idx *Index) Add(vectors [][]float32, records []Record) error {
	if len(vectors) != len(records) {
		return fmt.Errorf("%w: %d vectors, %d records", models.ErrLengthMismatch, len(vectors), len(records))
	}
	if len(vectors) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, v := range vectors {
		if len(v) != idx.dimension {
			return fmt.Errorf("%w: vector dimension %d, index dimension %d", models.ErrLengthMismatch, len(v), idx.dimension)
		}
	}
	idx.vectors = append(idx.vectors, vectors...)
	idx.records = append(idx.records, records...)
	return nil
}

// Search returns the k nearest records ordered ascending by squared L2
// distance. k is clamped to the number of stored vectors; an empty index
// yields an empty result, not an error.
func (idx *Index) Search(query []float32, k int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 || k <= 0 {
		return nil
	}
	if k > len(idx.vectors) {
		k = len(idx.vectors)
	}

	results := make([]Result, len(idx.vectors))
	for i, v := range idx.vectors {
		results[i] = Result{Record: idx.records[i], Distance: squaredL2(query, v)}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Distance < results[b].Distance
	})
	return results[:k]
}

// Clear resets the index to empty.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = nil
	idx.records = nil
}

// Size reports the number of stored vectors.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Dimension reports the fixed vector length this index accepts.
func (idx *Index) Dimension() int {
	return idx.dimension
}

func squaredL2(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
