package ui

import (
	"strings"

	"hggrip/internal/domain"
)

// matchesFilter checks if a repository matches the given filter query.
// A "path:" prefix restricts the match to the path; otherwise name and
// path are both searched, ignoring case.
func matchesFilter(r domain.Repository, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	if strings.HasPrefix(query, "path:") {
		return strings.Contains(strings.ToLower(r.Path), strings.TrimPrefix(query, "path:"))
	}

	return strings.Contains(strings.ToLower(r.Name), query) ||
		strings.Contains(strings.ToLower(r.Path), query)
}

// filterRepos returns the repositories matching query, keeping their order
func filterRepos(repos []domain.Repository, query string) []domain.Repository {
	if strings.TrimSpace(query) == "" {
		return repos
	}
	var out []domain.Repository
	for _, r := range repos {
		if matchesFilter(r, query) {
			out = append(out, r)
		}
	}
	return out
}
