package domain

import "context"

// Candidate is one retrieval hit: an assessment with its similarity score and
// rank in the retrieval order. Produced per request, discarded afterwards.
type Candidate struct {
	Assessment Assessment
	Score      float64
	Rank       int
}

// Recommendation is one final pipeline result returned to the caller.
type Recommendation struct {
	Assessment  Assessment
	MatchReason string
}

// RerankPick is a single reranker selection: the candidate's position in the
// input list plus a short justification.
type RerankPick struct {
	Index  int
	Reason string
}

// Reranker reorders and prunes a candidate list using contextual judgment.
// Implementations must not fabricate entries: picks reference input positions.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate, limit int) ([]RerankPick, error)
}
