package recommend

import (
	"context"

	"github.com/skillfit/assessrec/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex is the in-memory semantic index.
type VectorIndex interface {
	Search(vector []float32, topK int) []domain.Candidate
}

// LexicalIndex is the dependency-free fallback index.
type LexicalIndex interface {
	Search(query string, topK int) []domain.Candidate
}

// Reranker reorders the top candidates with contextual judgment.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.Candidate, limit int) ([]domain.RerankPick, error)
}
