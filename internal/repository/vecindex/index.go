// Package vecindex is the in-memory nearest-neighbor index over catalog
// embeddings. The catalog tops out at a few hundred records, so exhaustive
// cosine scoring beats any approximate structure on both latency and code.
package vecindex

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/skillfit/assessrec/internal/domain"
)

type entry struct {
	assessment domain.Assessment
	vector     []float32 // unit-normalized at build time
}

// Index holds one embedding per catalog record.
type Index struct {
	entries []entry
	dim     int
}

// Build embeds every record through the provider and assembles the index.
// One-time, single-threaded startup work; fails on the first provider error
// so the caller can decide to serve lexical-only.
func Build(
	ctx context.Context, records []domain.Assessment,
	embedder domain.Embedder, logger *zap.Logger,
) (*Index, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	entries := make([]entry, 0, len(records))
	dim := 0

	for _, rec := range records {
		result, err := embedder.Embed(ctx, rec.EmbeddingText())
		if err != nil {
			return nil, fmt.Errorf("embed record %d (%s): %w", rec.ID, rec.Name, err)
		}
		if dim == 0 {
			dim = len(result.Embedding)
		} else if len(result.Embedding) != dim {
			return nil, fmt.Errorf(
				"embed record %d (%s): dimension %d, index has %d",
				rec.ID, rec.Name, len(result.Embedding), dim,
			)
		}

		entries = append(entries, entry{
			assessment: rec,
			vector:     normalize(result.Embedding),
		})
	}

	logger.Info("Vector index built",
		zap.Int("records", len(entries)),
		zap.Int("dimensions", dim),
	)

	return &Index{entries: entries, dim: dim}, nil
}

// Dimensions returns the embedding dimensionality of the index.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Size returns the number of indexed records.
func (idx *Index) Size() int {
	return len(idx.entries)
}

// Search returns the topK nearest records to the query vector by cosine
// similarity. Ties keep catalog insertion order.
func (idx *Index) Search(vector []float32, topK int) []domain.Candidate {
	qvec := normalize(vector)

	candidates := make([]domain.Candidate, len(idx.entries))
	for i, e := range idx.entries {
		candidates[i] = domain.Candidate{
			Assessment: e.assessment,
			Score:      dot(qvec, e.vector),
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	for i := range candidates {
		candidates[i].Rank = i
	}
	return candidates
}

// normalize returns a unit-length copy so dot product equals cosine similarity.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
