// Package catalog loads the static assessment catalog from a JSON file.
// The catalog is read once at startup; ids are assigned from file order and
// stay stable as long as the file is not reordered.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillfit/assessrec/internal/domain"
)

// Load reads and normalizes the catalog file.
func Load(path string) ([]domain.Assessment, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	assessments := make([]domain.Assessment, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		// Dedupe by URL; the scraper can emit the same product twice.
		if r.URL != "" {
			if _, ok := seen[r.URL]; ok {
				continue
			}
			seen[r.URL] = struct{}{}
		}

		assessments = append(assessments, domain.Assessment{
			ID:              len(assessments),
			Name:            name,
			URL:             r.URL,
			Description:     strings.TrimSpace(r.Description),
			Duration:        parseDuration(r.Duration),
			TestTypes:       parseTestTypes(r.TestType),
			AdaptiveSupport: normalizeYesNo(pickNonEmpty(r.AdaptiveSupport, r.Adaptive)),
			RemoteSupport:   normalizeYesNo(pickNonEmpty(r.RemoteSupport, r.RemoteTesting)),
		})
	}

	if len(assessments) == 0 {
		return nil, fmt.Errorf("catalog %s: %w", path, domain.ErrEmptyCatalog)
	}

	return assessments, nil
}
