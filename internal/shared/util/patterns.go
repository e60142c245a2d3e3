package util

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Patterns is a compiled set of glob patterns. The zero value matches nothing.
type Patterns struct {
	raw      []string
	compiled []glob.Glob
}

// CompilePatterns compiles patterns with '/' as the separator so that '*'
// does not cross path components. Blank entries are ignored.
func CompilePatterns(patterns []string) (Patterns, error) {
	var p Patterns
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return Patterns{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		p.raw = append(p.raw, pattern)
		p.compiled = append(p.compiled, g)
	}
	return p, nil
}

// Empty reports whether no pattern was compiled.
func (p Patterns) Empty() bool {
	return len(p.compiled) == 0
}

// Match reports whether any pattern matches value.
func (p Patterns) Match(value string) bool {
	for _, g := range p.compiled {
		if g.Match(value) {
			return true
		}
	}
	return false
}

func (p Patterns) String() string {
	return strings.Join(p.raw, ",")
}
