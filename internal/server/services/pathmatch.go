package services

import "strings"

// PathMatcher matches request paths against an allow-list. A pattern ending
// in "/**" matches its prefix and any path below it; any other pattern must
// match exactly.
type PathMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

func NewPathMatcher(patterns []string) *PathMatcher {
	m := &PathMatcher{exact: make(map[string]struct{})}
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "/**"); ok {
			m.prefixes = append(m.prefixes, prefix)
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

func (m *PathMatcher) Match(path string) bool {
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
