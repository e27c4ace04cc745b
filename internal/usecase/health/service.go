package health

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the service is serving lexical-only results.
	Degraded Status = "degraded"
)

// Mode names the active retrieval path.
type Mode string

const (
	// Semantic indicates the vector index is built and serving.
	Semantic Mode = "semantic"
	// LexicalOnly indicates requests are served by the TF-IDF fallback.
	LexicalOnly Mode = "lexical_only"
)

// Report aggregates the service state.
type Report struct {
	Status      Status
	Mode        Mode
	CatalogSize int
	Reranker    bool
}

// Service reports pipeline readiness.
type Service struct {
	catalogSize int
	vectorReady bool
	reranker    bool
}

// New creates a health service from the startup outcome. The state is fixed
// at construction: indexes are built once and never change afterwards.
func New(catalogSize int, vectorReady, reranker bool) *Service {
	return &Service{
		catalogSize: catalogSize,
		vectorReady: vectorReady,
		reranker:    reranker,
	}
}

// Check reports the current serving mode.
func (s *Service) Check() Report {
	status := Healthy
	mode := Semantic
	if !s.vectorReady {
		status = Degraded
		mode = LexicalOnly
	}
	return Report{
		Status:      status,
		Mode:        mode,
		CatalogSize: s.catalogSize,
		Reranker:    s.reranker,
	}
}
