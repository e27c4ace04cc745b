// Package chi exposes the recommendation pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/skillfit/assessrec/internal/domain"
	healthuc "github.com/skillfit/assessrec/internal/usecase/health"
)

// Recommender runs the recommendation pipeline.
type Recommender interface {
	Recommend(ctx context.Context, query string) ([]domain.Recommendation, error)
}

// HealthChecker reports pipeline readiness.
type HealthChecker interface {
	Check() healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	recommender Recommender
	health      HealthChecker
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(recommender Recommender, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		recommender: recommender,
		health:      health,
		logger:      logger,
	}
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/recommend", s.handleRecommend)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

type recommendRequest struct {
	Query string `json:"query"`
}

type recommendedAssessment struct {
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Description     string   `json:"description"`
	Duration        int      `json:"duration"`
	TestType        []string `json:"test_type"`
	AdaptiveSupport string   `json:"adaptive_support"`
	RemoteSupport   string   `json:"remote_support"`
	MatchReason     string   `json:"match_reason"`
}

type recommendResponse struct {
	RecommendedAssessments []recommendedAssessment `json:"recommended_assessments"`
}

// handleRecommend handles POST /recommend. Provider outages are masked inside
// the pipeline; the endpoint only rejects bad input.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	recs, err := s.recommender.Recommend(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]recommendedAssessment, len(recs))
	for i, rec := range recs {
		items[i] = recommendedAssessment{
			Name:            rec.Assessment.Name,
			URL:             rec.Assessment.URL,
			Description:     rec.Assessment.Description,
			Duration:        rec.Assessment.Duration,
			TestType:        rec.Assessment.TestTypes,
			AdaptiveSupport: rec.Assessment.AdaptiveSupport,
			RemoteSupport:   rec.Assessment.RemoteSupport,
			MatchReason:     rec.MatchReason,
		}
	}

	writeJSON(w, http.StatusOK, recommendResponse{RecommendedAssessments: items})
}

type healthResponse struct {
	Status      string `json:"status"`
	Mode        string `json:"mode"`
	CatalogSize int    `json:"catalog_size"`
	Reranker    bool   `json:"reranker"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	report := s.health.Check()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      string(report.Status),
		Mode:        string(report.Mode),
		CatalogSize: report.CatalogSize,
		Reranker:    report.Reranker,
	})
}

// handleDomainError maps domain sentinels to HTTP statuses.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidQuery) {
		writeError(w, http.StatusBadRequest, "invalid_query", "Query must not be empty")
		return
	}

	s.logger.Error("Unhandled pipeline error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
