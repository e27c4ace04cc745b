package domain

import "strings"

// Assessment is a single catalog entry. The catalog is loaded once at startup
// and is read-only afterwards.
type Assessment struct {
	ID              int
	Name            string
	URL             string
	Description     string
	Duration        int
	TestTypes       []string
	AdaptiveSupport string
	RemoteSupport   string
}

// EmbeddingText composes the document text that is vectorized for this
// assessment. Name and test types are folded in so the semantic search sees
// the full context, not just the free-form description.
func (a Assessment) EmbeddingText() string {
	var b strings.Builder
	b.WriteString("Assessment Name: ")
	b.WriteString(a.Name)
	b.WriteString(". Test Type: ")
	b.WriteString(strings.Join(a.TestTypes, ", "))
	b.WriteString(". Description: ")
	b.WriteString(a.Description)
	return b.String()
}

// SearchText is the text the lexical index tokenizes: description plus tags.
func (a Assessment) SearchText() string {
	parts := make([]string, 0, len(a.TestTypes)+2)
	parts = append(parts, a.Name, a.Description)
	parts = append(parts, a.TestTypes...)
	return strings.Join(parts, " ")
}
