package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillfit/assessrec/internal/domain"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assessments.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoad_CleanFormat(t *testing.T) {
	path := writeCatalog(t, `[
		{
			"name": "Core Java",
			"url": "https://example.com/core-java",
			"description": "java programming test",
			"duration": 30,
			"test_type": ["Knowledge & Skills"],
			"adaptive_support": "No",
			"remote_support": "Yes"
		}
	]`)

	records, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.ID != 0 {
		t.Errorf("expected id 0, got %d", r.ID)
	}
	if r.Duration != 30 {
		t.Errorf("expected duration 30, got %d", r.Duration)
	}
	if len(r.TestTypes) != 1 || r.TestTypes[0] != "Knowledge & Skills" {
		t.Errorf("unexpected test types: %v", r.TestTypes)
	}
	if r.AdaptiveSupport != "No" || r.RemoteSupport != "Yes" {
		t.Errorf("unexpected flags: %q / %q", r.AdaptiveSupport, r.RemoteSupport)
	}
}

func TestLoad_RawScrapeFormat(t *testing.T) {
	path := writeCatalog(t, `[
		{
			"name": "Leadership Report",
			"url": "https://example.com/leadership",
			"description": "leadership assessment",
			"duration": "Approximate Completion Time in minutes = 49",
			"test_type": "Personality & Behavior, Competencies",
			"adaptive": "yes",
			"remote_testing": "Not Supported"
		}
	]`)

	records, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := records[0]
	if r.Duration != 49 {
		t.Errorf("expected duration parsed from text = 49, got %d", r.Duration)
	}
	if len(r.TestTypes) != 2 || r.TestTypes[0] != "Personality & Behavior" || r.TestTypes[1] != "Competencies" {
		t.Errorf("unexpected test types: %v", r.TestTypes)
	}
	if r.AdaptiveSupport != "Yes" {
		t.Errorf("expected adaptive Yes, got %q", r.AdaptiveSupport)
	}
	if r.RemoteSupport != "No" {
		t.Errorf("expected remote No, got %q", r.RemoteSupport)
	}
}

func TestLoad_DeduplicatesByURL(t *testing.T) {
	path := writeCatalog(t, `[
		{"name": "A", "url": "https://example.com/a", "description": "x"},
		{"name": "A again", "url": "https://example.com/a", "description": "x"},
		{"name": "B", "url": "https://example.com/b", "description": "y"}
	]`)

	records, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after dedupe, got %d", len(records))
	}
	if records[0].ID != 0 || records[1].ID != 1 {
		t.Errorf("ids must be dense after dedupe: %d, %d", records[0].ID, records[1].ID)
	}
}

func TestLoad_SkipsNamelessRecords(t *testing.T) {
	path := writeCatalog(t, `[
		{"name": "  ", "url": "https://example.com/a"},
		{"name": "Real", "url": "https://example.com/b"}
	]`)

	records, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Real" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_EmptyCatalog(t *testing.T) {
	path := writeCatalog(t, `[]`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for empty catalog")
	}
	if !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeCatalog(t, `{"not": "an array"}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed catalog")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`30`, 30},
		{`"45"`, 45},
		{`"Approximate Completion Time in minutes = 49"`, 49},
		{`"no numbers here"`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		if got := parseDuration(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("parseDuration(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeYesNo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Yes", "Yes"},
		{"yes", "Yes"},
		{"Supported", "Yes"},
		{"Not Supported", "No"},
		{"No", "No"},
		{"", "No"},
		{"?", "No"},
	}
	for _, tt := range tests {
		if got := normalizeYesNo(tt.in); got != tt.want {
			t.Errorf("normalizeYesNo(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
