// Package gemini implements the rerank step with a single Gemini call. The
// model sees the query and a numbered candidate digest and answers with a JSON
// selection; everything it returns is validated against the input list before
// the pipeline sees it.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/skillfit/assessrec/internal/domain"
	"github.com/skillfit/assessrec/internal/metrics"
)

// Compile-time check: Reranker implements domain.Reranker.
var _ domain.Reranker = (*Reranker)(nil)

const defaultModel = "gemini-2.5-flash"

// descPreviewLen caps the description snippet sent per candidate to keep the
// prompt within a predictable token budget.
const descPreviewLen = 200

// Reranker reorders candidates via the Gemini API.
type Reranker struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// Config holds the reranker settings.
type Config struct {
	APIKey string
	Model  string
	Logger *zap.Logger
}

// NewReranker creates a Gemini-backed reranker.
func NewReranker(ctx context.Context, cfg *Config) (*Reranker, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Reranker{client: client, model: model, logger: cfg.Logger}, nil
}

// Rerank implements domain.Reranker. Provider failures are wrapped in
// domain.ErrProviderUnavailable, unusable output in domain.ErrMalformedRerank;
// the pipeline treats both as "serve the retrieval order".
func (r *Reranker) Rerank(
	ctx context.Context, query string, candidates []domain.Candidate, limit int,
) ([]domain.RerankPick, error) {
	prompt := buildPrompt(query, candidates, limit)

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	start := time.Now()

	resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(prompt), cfg)

	duration := time.Since(start)

	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		return nil, fmt.Errorf("generate content: %w: %w", err, domain.ErrProviderUnavailable)
	}

	text := collectText(resp)
	if text == "" {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		return nil, fmt.Errorf("empty rerank response: %w", domain.ErrMalformedRerank)
	}

	picks, err := parsePicks(text, len(candidates))
	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		r.logger.Warn("Unparsable rerank response",
			zap.String("model", r.model),
			zap.String("response", truncate(text, 500)),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.RerankRequestsTotal.WithLabelValues(r.model, "success").Inc()
	metrics.RerankRequestDuration.WithLabelValues(r.model).Observe(duration.Seconds())

	r.logger.Debug("Rerank completed",
		zap.String("model", r.model),
		zap.Duration("duration", duration),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(picks)),
	)

	return picks, nil
}

// buildPrompt renders the query and a numbered candidate digest.
func buildPrompt(query string, candidates []domain.Candidate, limit int) string {
	var digest strings.Builder
	for i, c := range candidates {
		desc := strings.ReplaceAll(c.Assessment.Description, "\n", " ")
		if len(desc) > descPreviewLen {
			desc = desc[:descPreviewLen] + "..."
		}
		fmt.Fprintf(&digest, "ID %d: %s | Types: %s | Desc: %s\n",
			i, c.Assessment.Name, strings.Join(c.Assessment.TestTypes, ", "), desc)
	}

	return fmt.Sprintf(`You are an expert HR assessment recommender.

USER QUERY: %q

YOUR TASK:
Select the %d most relevant assessments from the candidates below, best first.

RULES:
1. Relevance: only choose tests that actually match the user's requirements.
2. Balance: if the query implies BOTH technical skills (coding, finance, tools)
   AND soft skills (leadership, personality, teamwork), select a mix of
   "Knowledge & Skills" AND "Personality & Behavior" tests. If the query is
   purely technical, focus on "Knowledge & Skills". If it is purely behavioral,
   focus on "Personality" or "Situational Judgement".
3. Only use IDs from the candidate list. Never invent IDs.

CANDIDATES:
%s
OUTPUT FORMAT:
Return ONLY a JSON array of objects with the integer id and a one-sentence
reason, in order of relevance.
Example: [{"id": 12, "reason": "Covers core Java coding skills."}]`,
		query, limit, digest.String())
}

// collectText concatenates the textual parts of all response candidates.
func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
