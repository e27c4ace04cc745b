package gemini

import (
	"errors"
	"strings"
	"testing"

	"github.com/skillfit/assessrec/internal/domain"
)

func TestParsePicks_ObjectArray(t *testing.T) {
	text := `[{"id": 2, "reason": "Covers Java."}, {"id": 0, "reason": "Leadership focus."}]`

	picks, err := parsePicks(text, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 2 {
		t.Fatalf("expected 2 picks, got %d", len(picks))
	}
	if picks[0].Index != 2 || picks[0].Reason != "Covers Java." {
		t.Errorf("unexpected first pick: %+v", picks[0])
	}
	if picks[1].Index != 0 || picks[1].Reason != "Leadership focus." {
		t.Errorf("unexpected second pick: %+v", picks[1])
	}
}

func TestParsePicks_BareIDArray(t *testing.T) {
	picks, err := parsePicks(`[3, 1, 4]`, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{3, 1, 4}
	if len(picks) != len(want) {
		t.Fatalf("expected %d picks, got %d", len(want), len(picks))
	}
	for i, p := range picks {
		if p.Index != want[i] {
			t.Errorf("pick %d: expected index %d, got %d", i, want[i], p.Index)
		}
		if p.Reason != "" {
			t.Errorf("pick %d: expected empty reason, got %q", i, p.Reason)
		}
	}
}

func TestParsePicks_CodeFence(t *testing.T) {
	text := "```json\n[{\"id\": 1, \"reason\": \"ok\"}]\n```"

	picks, err := parsePicks(text, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 1 || picks[0].Index != 1 {
		t.Fatalf("unexpected picks: %+v", picks)
	}
}

func TestParsePicks_OutOfRangeDiscarded(t *testing.T) {
	picks, err := parsePicks(`[{"id": 7, "reason": "fabricated"}, {"id": -2}, {"id": 1, "reason": "ok"}]`, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 1 {
		t.Fatalf("expected 1 surviving pick, got %d", len(picks))
	}
	if picks[0].Index != 1 {
		t.Errorf("expected index 1, got %d", picks[0].Index)
	}
}

func TestParsePicks_DuplicatesDiscarded(t *testing.T) {
	picks, err := parsePicks(`[2, 2, 0, 2]`, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 2 {
		t.Fatalf("expected 2 picks, got %d", len(picks))
	}
}

func TestParsePicks_Malformed(t *testing.T) {
	inputs := []string{
		"not json at all",
		`{"id": 1}`,
		`"just a string"`,
		"",
	}
	for _, in := range inputs {
		if _, err := parsePicks(in, 5); !errors.Is(err, domain.ErrMalformedRerank) {
			t.Errorf("input %q: expected ErrMalformedRerank, got %v", in, err)
		}
	}
}

func TestBuildPrompt_ContainsCandidates(t *testing.T) {
	cands := []domain.Candidate{
		{Assessment: domain.Assessment{Name: "Core Java", TestTypes: []string{"Knowledge & Skills"}, Description: "java test"}},
		{Assessment: domain.Assessment{Name: "OPQ32r", TestTypes: []string{"Personality & Behavior"}, Description: "personality"}},
	}

	prompt := buildPrompt("java developer", cands, 5)

	for _, want := range []string{"java developer", "ID 0: Core Java", "ID 1: OPQ32r", "Knowledge & Skills"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
