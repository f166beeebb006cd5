package automation

import (
	"net/url"
	"strings"
)

// ParseURLsFromText extracts product URLs from operator-pasted text, one
// candidate per line. Only absolute http and https URLs are kept, in the
// order they appear. Duplicate lines are kept once.
func ParseURLsFromText(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	for _, line := range strings.Split(text, "\n") {
		candidate := strings.TrimSpace(line)
		if candidate == "" {
			continue
		}
		u, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		if u.Host == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}

	return out
}
