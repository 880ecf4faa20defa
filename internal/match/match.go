// Package match compiles shell-style glob patterns into matchers over
// credential names, so list and search can filter a full store enumeration
// without requiring pattern support from the store itself.
package match

import (
	"fmt"

	"github.com/gobwas/glob"
)

// All matches every credential name.
const All = "*"

// Matcher tests credential names against a compiled glob pattern.
type Matcher struct {
	pattern string
	g       glob.Glob
}

// Compile translates a shell-glob pattern into a Matcher. `*` matches any run
// of characters including the empty one, `?` matches exactly one character,
// and `[...]` matches any one character in the bracketed set. Everything else
// matches literally.
func Compile(pattern string) (Matcher, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return Matcher{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return Matcher{pattern: pattern, g: g}, nil
}

// Match reports whether name matches the pattern. Total; never fails.
func (m Matcher) Match(name string) bool {
	return m.g.Match(name)
}

// Pattern returns the source pattern the matcher was compiled from.
func (m Matcher) Pattern() string {
	return m.pattern
}
