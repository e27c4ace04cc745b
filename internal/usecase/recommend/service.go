// Package recommend orchestrates the two-stage pipeline: retrieval (semantic
// with lexical fallback), optional reranking, then finalization. Dependency
// failures never escape this package; the only error a caller can see is an
// invalid query.
package recommend

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skillfit/assessrec/internal/domain"
	"github.com/skillfit/assessrec/internal/logger"
	"github.com/skillfit/assessrec/internal/metrics"
)

const (
	semanticReason = "Close semantic match to the stated requirements."
	lexicalReason  = "Strong keyword overlap with the stated requirements."
)

// Service runs the recommendation pipeline. All fields are read-only after
// construction, so concurrent requests need no locking.
type Service struct {
	embedder Embedder    // nil when no provider is configured
	vectors  VectorIndex // nil when the startup build failed (lexical-only mode)
	lexical  LexicalIndex
	reranker Reranker // nil when reranking is disabled

	topK          int
	resultCount   int
	embedTimeout  time.Duration
	rerankTimeout time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithVectorIndex attaches the semantic retrieval path.
func WithVectorIndex(embedder Embedder, vectors VectorIndex) Option {
	return func(s *Service) {
		s.embedder = embedder
		s.vectors = vectors
	}
}

// WithReranker attaches the rerank stage.
func WithReranker(r Reranker) Option {
	return func(s *Service) { s.reranker = r }
}

// WithLimits overrides candidate and result sizing.
func WithLimits(topK, resultCount int) Option {
	return func(s *Service) {
		s.topK = topK
		s.resultCount = resultCount
	}
}

// WithTimeouts overrides the provider call deadlines.
func WithTimeouts(embed, rerank time.Duration) Option {
	return func(s *Service) {
		s.embedTimeout = embed
		s.rerankTimeout = rerank
	}
}

// New creates the pipeline service. The lexical index is the only mandatory
// dependency: it is what makes the availability guarantee hold.
func New(lexical LexicalIndex, opts ...Option) *Service {
	s := &Service{
		lexical:       lexical,
		topK:          20,
		resultCount:   5,
		embedTimeout:  5 * time.Second,
		rerankTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend runs RETRIEVE -> RERANK -> FINALIZE for one query.
func (s *Service) Recommend(ctx context.Context, query string) ([]domain.Recommendation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}

	candidates, semantic := s.retrieve(ctx, query)
	return s.finalize(ctx, query, candidates, semantic), nil
}

// retrieve attempts vector retrieval and falls back to the lexical index on
// any provider failure. Later stages only see an ordered candidate list; the
// substitution is invisible to them.
func (s *Service) retrieve(ctx context.Context, query string) ([]domain.Candidate, bool) {
	if s.vectors == nil || s.embedder == nil {
		return s.lexical.Search(query, s.topK), false
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	result, err := s.embedder.Embed(embedCtx, query)
	if err != nil {
		metrics.RetrievalFallbacksTotal.Inc()
		logger.FromContext(ctx).Warn("Query embedding failed, using lexical fallback",
			zap.Error(err),
		)
		return s.lexical.Search(query, s.topK), false
	}

	return s.vectors.Search(result.Embedding, s.topK), true
}

// finalize applies the optional rerank stage and truncates to the requested
// result count. When the reranker selects fewer than requested, the remainder
// is padded from the upstream ranking in order.
func (s *Service) finalize(
	ctx context.Context, query string, candidates []domain.Candidate, semantic bool,
) []domain.Recommendation {
	fallbackReason := lexicalReason
	if semantic {
		fallbackReason = semanticReason
	}

	recs := make([]domain.Recommendation, 0, s.resultCount)
	chosen := make(map[int]struct{}, s.resultCount)

	if s.reranker != nil && len(candidates) > 0 {
		picks, err := s.rerank(ctx, query, candidates)
		if err != nil {
			metrics.RerankFallbacksTotal.Inc()
			logger.FromContext(ctx).Warn("Rerank failed, serving retrieval order",
				zap.Error(err),
			)
		}
		for _, p := range picks {
			// Defense in depth: the transport already validates indices,
			// but a fabricated pick must never reach the caller.
			if p.Index < 0 || p.Index >= len(candidates) {
				continue
			}
			if _, ok := chosen[p.Index]; ok {
				continue
			}
			if len(recs) == s.resultCount {
				break
			}
			chosen[p.Index] = struct{}{}
			reason := p.Reason
			if reason == "" {
				reason = fallbackReason
			}
			recs = append(recs, domain.Recommendation{
				Assessment:  candidates[p.Index].Assessment,
				MatchReason: reason,
			})
		}
	}

	// Pad from the upstream ranking, preserving its order.
	for i, c := range candidates {
		if len(recs) == s.resultCount {
			break
		}
		if _, ok := chosen[i]; ok {
			continue
		}
		chosen[i] = struct{}{}
		recs = append(recs, domain.Recommendation{
			Assessment:  c.Assessment,
			MatchReason: fallbackReason,
		})
	}

	return recs
}

func (s *Service) rerank(
	ctx context.Context, query string, candidates []domain.Candidate,
) ([]domain.RerankPick, error) {
	rerankCtx, cancel := context.WithTimeout(ctx, s.rerankTimeout)
	defer cancel()

	return s.reranker.Rerank(rerankCtx, query, candidates, s.resultCount)
}
