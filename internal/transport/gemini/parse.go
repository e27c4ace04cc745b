package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skillfit/assessrec/internal/domain"
)

type pick struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// parsePicks decodes the model's JSON selection. It accepts the documented
// object form and, as a concession to model drift, a bare array of ids.
// Ids outside [0, n) and duplicates are discarded here so the pipeline
// never sees a fabricated candidate.
func parsePicks(text string, n int) ([]domain.RerankPick, error) {
	raw := stripCodeFence(text)

	var objects []pick
	if err := json.Unmarshal([]byte(raw), &objects); err == nil {
		return dedupe(objects, n), nil
	}

	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err == nil {
		objects = make([]pick, len(ids))
		for i, id := range ids {
			objects[i] = pick{ID: id}
		}
		return dedupe(objects, n), nil
	}

	return nil, fmt.Errorf("decode rerank selection: %w", domain.ErrMalformedRerank)
}

func dedupe(objects []pick, n int) []domain.RerankPick {
	seen := make(map[int]struct{}, len(objects))
	picks := make([]domain.RerankPick, 0, len(objects))
	for _, o := range objects {
		if o.ID < 0 || o.ID >= n {
			continue
		}
		if _, ok := seen[o.ID]; ok {
			continue
		}
		seen[o.ID] = struct{}{}
		picks = append(picks, domain.RerankPick{Index: o.ID, Reason: strings.TrimSpace(o.Reason)})
	}
	return picks
}

// stripCodeFence removes a ```json ... ``` wrapper if the model added one
// despite the JSON response MIME type.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
