package httpx

import "strings"

// AllowList is the closed, statically configured set of routes reachable
// without authentication. Patterns are either exact paths ("/index.html")
// or prefixes ending in "/*" ("/api/auth/*", which also matches the bare
// prefix itself). Matching is ordered: first match wins. Nothing is ever
// inferred; a route is public only if it is listed here.
type AllowList struct {
	patterns []string
}

// NewAllowList builds an allow-list from the given patterns.
func NewAllowList(patterns ...string) *AllowList {
	return &AllowList{patterns: patterns}
}

// Match reports whether path is allow-listed.
func (a *AllowList) Match(path string) bool {
	for _, pattern := range a.patterns {
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == pattern {
			return true
		}
	}
	return false
}
