package vecindex

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/skillfit/assessrec/internal/domain"
)

// stubEmbedder maps embedding text to a fixed vector.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	v, ok := s.vectors[text]
	if !ok {
		return domain.EmbeddingResult{}, errors.New("no vector for text")
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

func testRecords() []domain.Assessment {
	return []domain.Assessment{
		{ID: 0, Name: "Java Test", TestTypes: []string{"Knowledge & Skills"}, Description: "java"},
		{ID: 1, Name: "Leadership Report", TestTypes: []string{"Competencies"}, Description: "leadership"},
		{ID: 2, Name: "Numerical Reasoning", TestTypes: []string{"Ability & Aptitude"}, Description: "numbers"},
	}
}

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	records := testRecords()
	embedder := &stubEmbedder{vectors: map[string][]float32{
		records[0].EmbeddingText(): {1, 0, 0},
		records[1].EmbeddingText(): {0, 1, 0},
		records[2].EmbeddingText(): {0, 0, 1},
	}}
	idx, err := Build(context.Background(), records, embedder, zap.NewNop())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return idx
}

func TestBuild_IndexesEveryRecord(t *testing.T) {
	idx := buildTestIndex(t)
	if idx.Size() != 3 {
		t.Errorf("expected 3 entries, got %d", idx.Size())
	}
	if idx.Dimensions() != 3 {
		t.Errorf("expected dimension 3, got %d", idx.Dimensions())
	}
}

func TestBuild_EmptyCatalog(t *testing.T) {
	_, err := Build(context.Background(), nil, &stubEmbedder{}, zap.NewNop())
	if !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestBuild_ProviderErrorPropagates(t *testing.T) {
	embedder := &stubEmbedder{err: domain.ErrProviderUnavailable}
	_, err := Build(context.Background(), testRecords(), embedder, zap.NewNop())
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestBuild_DimensionMismatch(t *testing.T) {
	records := testRecords()
	embedder := &stubEmbedder{vectors: map[string][]float32{
		records[0].EmbeddingText(): {1, 0, 0},
		records[1].EmbeddingText(): {0, 1},
		records[2].EmbeddingText(): {0, 0, 1},
	}}
	if _, err := Build(context.Background(), records, embedder, zap.NewNop()); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestSearch_NearestFirst(t *testing.T) {
	idx := buildTestIndex(t)

	// Closest to axis 1, then axis 0, then orthogonal axis 2.
	got := idx.Search([]float32{0.3, 0.9, 0}, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	wantIDs := []int{1, 0, 2}
	for i, want := range wantIDs {
		if got[i].Assessment.ID != want {
			t.Errorf("rank %d: expected id %d, got %d", i, want, got[i].Assessment.ID)
		}
		if got[i].Rank != i {
			t.Errorf("rank %d: expected Rank %d, got %d", i, i, got[i].Rank)
		}
	}
	if got[0].Score <= got[1].Score || got[1].Score <= got[2].Score {
		t.Errorf("scores not descending: %v %v %v", got[0].Score, got[1].Score, got[2].Score)
	}
}

func TestSearch_TopKTruncation(t *testing.T) {
	idx := buildTestIndex(t)
	got := idx.Search([]float32{1, 1, 1}, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	idx := buildTestIndex(t)
	// Equidistant from every entry.
	got := idx.Search([]float32{1, 1, 1}, 3)
	for i, c := range got {
		if c.Assessment.ID != i {
			t.Errorf("position %d: expected id %d, got %d", i, i, c.Assessment.ID)
		}
	}
}

func TestSearch_ScaleInvariance(t *testing.T) {
	idx := buildTestIndex(t)
	a := idx.Search([]float32{0.3, 0.9, 0.1}, 3)
	b := idx.Search([]float32{3, 9, 1}, 3)
	for i := range a {
		if a[i].Assessment.ID != b[i].Assessment.ID {
			t.Fatalf("position %d: ids differ: %d vs %d", i, a[i].Assessment.ID, b[i].Assessment.ID)
		}
		if math.Abs(a[i].Score-b[i].Score) > 1e-6 {
			t.Errorf("position %d: scores differ: %v vs %v", i, a[i].Score, b[i].Score)
		}
	}
}

func TestNormalize_UnitLength(t *testing.T) {
	v := normalize([]float32{3, 4})
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("expected unit length, got norm^2 = %v", sum)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := normalize([]float32{0, 0, 0})
	for _, x := range v {
		if x != 0 {
			t.Fatalf("zero vector must stay zero, got %v", v)
		}
	}
}
