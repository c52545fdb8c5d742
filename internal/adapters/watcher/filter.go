package watcher

import "path/filepath"

// Filter selects the events a watch tree reacts to, by base name pattern.
// An empty Filter matches every path.
type Filter struct {
	patterns []string
}

// NewFilter creates a Filter from filepath.Match patterns.
func NewFilter(patterns ...string) Filter {
	return Filter{patterns: patterns}
}

// Match reports whether path matches one of the patterns.
func (f Filter) Match(path string) bool {
	if len(f.patterns) == 0 {
		return true
	}
	name := filepath.Base(path)
	for _, p := range f.patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
