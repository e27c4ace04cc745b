package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skillfit/assessrec/internal/domain"
	healthuc "github.com/skillfit/assessrec/internal/usecase/health"
)

type mockRecommender struct {
	recs []domain.Recommendation
	err  error

	gotQuery string
}

func (m *mockRecommender) Recommend(_ context.Context, query string) ([]domain.Recommendation, error) {
	m.gotQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.recs, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check() healthuc.Report {
	return m.report
}

func newTestRouter(rec *mockRecommender, health *mockHealth) chi.Router {
	if health == nil {
		health = &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy, Mode: healthuc.Semantic, CatalogSize: 7, Reranker: true,
		}}
	}
	r := chi.NewRouter()
	NewServer(rec, health, zap.NewNop()).Register(r)
	return r
}

func doRequest(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleRecommend_Success(t *testing.T) {
	rec := &mockRecommender{recs: []domain.Recommendation{
		{
			Assessment: domain.Assessment{
				ID:              3,
				Name:            "Core Java",
				URL:             "https://example.com/core-java",
				Description:     "java programming test",
				Duration:        30,
				TestTypes:       []string{"Knowledge & Skills"},
				AdaptiveSupport: "No",
				RemoteSupport:   "Yes",
			},
			MatchReason: "Covers core Java skills the role requires",
		},
	}}
	r := newTestRouter(rec, nil)

	w := doRequest(t, r, http.MethodPost, "/recommend", `{"query": "java developer"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if rec.gotQuery != "java developer" {
		t.Errorf("query not forwarded, got %q", rec.gotQuery)
	}

	var resp recommendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.RecommendedAssessments) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(resp.RecommendedAssessments))
	}
	got := resp.RecommendedAssessments[0]
	if got.Name != "Core Java" || got.URL != "https://example.com/core-java" {
		t.Errorf("unexpected assessment: %+v", got)
	}
	if got.Duration != 30 || got.AdaptiveSupport != "No" || got.RemoteSupport != "Yes" {
		t.Errorf("unexpected attributes: %+v", got)
	}
	if len(got.TestType) != 1 || got.TestType[0] != "Knowledge & Skills" {
		t.Errorf("unexpected test types: %v", got.TestType)
	}
	if got.MatchReason == "" {
		t.Error("expected a match reason")
	}
}

func TestHandleRecommend_InvalidQuery(t *testing.T) {
	rec := &mockRecommender{err: domain.ErrInvalidQuery}
	r := newTestRouter(rec, nil)

	w := doRequest(t, r, http.MethodPost, "/recommend", `{"query": "   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "invalid_query" {
		t.Errorf("expected code invalid_query, got %q", resp.Code)
	}
}

func TestHandleRecommend_MalformedBody(t *testing.T) {
	r := newTestRouter(&mockRecommender{}, nil)

	w := doRequest(t, r, http.MethodPost, "/recommend", `{"query": `)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "bad_request" {
		t.Errorf("expected code bad_request, got %q", resp.Code)
	}
}

func TestHandleRecommend_InternalError(t *testing.T) {
	rec := &mockRecommender{err: errors.New("index gone")}
	r := newTestRouter(rec, nil)

	w := doRequest(t, r, http.MethodPost, "/recommend", `{"query": "java"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "index gone") {
		t.Error("internal error detail must not leak to the client")
	}
}

func TestHandleRecommend_EmptyResultIsValidJSON(t *testing.T) {
	r := newTestRouter(&mockRecommender{}, nil)

	w := doRequest(t, r, http.MethodPost, "/recommend", `{"query": "obscure niche role"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"recommended_assessments":[]`) {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	health := &mockHealth{report: healthuc.Report{
		Status:      healthuc.Degraded,
		Mode:        healthuc.LexicalOnly,
		CatalogSize: 377,
		Reranker:    false,
	}}
	r := newTestRouter(&mockRecommender{}, health)

	w := doRequest(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "degraded" || resp.Mode != "lexical_only" {
		t.Errorf("unexpected health payload: %+v", resp)
	}
	if resp.CatalogSize != 377 || resp.Reranker {
		t.Errorf("unexpected health payload: %+v", resp)
	}
}
