package catalog

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// record is the on-disk catalog entry. The schema tolerates both the cleaned
// catalog format and raw scraper output: duration may be a number or free text
// ("Approximate Completion Time in minutes = 49"), test_type may be a string
// or a list, and the remote/adaptive flags appear under either field name.
type record struct {
	Name            string          `json:"name"`
	URL             string          `json:"url"`
	Description     string          `json:"description"`
	Duration        json.RawMessage `json:"duration"`
	TestType        json.RawMessage `json:"test_type"`
	AdaptiveSupport string          `json:"adaptive_support"`
	Adaptive        string          `json:"adaptive"`
	RemoteSupport   string          `json:"remote_support"`
	RemoteTesting   string          `json:"remote_testing"`
}

var firstNumber = regexp.MustCompile(`(\d+)`)

// parseDuration extracts minutes from a JSON number or a free-text value.
func parseDuration(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	match := firstNumber.FindString(s)
	if match == "" {
		return 0
	}
	parsed, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return parsed
}

// parseTestTypes accepts a list of strings or a comma-separated string.
func parseTestTypes(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := list[:0]
		for _, t := range list {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeYesNo collapses scraped indicator text to a strict "Yes"/"No".
func normalizeYesNo(value string) string {
	v := strings.ToLower(value)
	switch {
	case strings.Contains(v, "not supported"):
		return "No"
	case strings.Contains(v, "yes"), strings.Contains(v, "supported"), strings.Contains(v, "\U0001F7E2"):
		return "Yes"
	default:
		return "No"
	}
}

// pickNonEmpty returns the first non-empty string.
func pickNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
