package health

import "testing"

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		vectorReady bool
		reranker    bool
		wantStatus  Status
		wantMode    Mode
	}{
		{"full pipeline", true, true, Healthy, Semantic},
		{"semantic without reranker", true, false, Healthy, Semantic},
		{"lexical only", false, false, Degraded, LexicalOnly},
		{"lexical with reranker configured", false, true, Degraded, LexicalOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := New(377, tt.vectorReady, tt.reranker).Check()
			if report.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", report.Status, tt.wantStatus)
			}
			if report.Mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", report.Mode, tt.wantMode)
			}
			if report.CatalogSize != 377 {
				t.Errorf("catalog size = %d, want 377", report.CatalogSize)
			}
			if report.Reranker != tt.reranker {
				t.Errorf("reranker = %v, want %v", report.Reranker, tt.reranker)
			}
		})
	}
}
