// Package urlpattern compiles path templates such as "section/:id(/*rest)"
// into their ordered parameter names and a reusable URL template.
//
// Matching a concrete URL against a pattern is not done here; that belongs
// to the host router.
package urlpattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrRegexpPattern is returned when a pattern is a raw regular expression
// instead of a path template. Such patterns cannot be rendered back into URLs.
var ErrRegexpPattern = errors.New("urlpattern: regular expression patterns are not supported")

var paramMatcher = regexp.MustCompile(`[:*]([^:)/]+)`)

// regexpMarkers are characters that never appear in path templates but
// do appear in hand-written regular expressions. Literal "?", "+", "|" and
// braces are valid in templates, e.g. "search?type=:type".
const regexpMarkers = `\[]`

// Pattern is a compiled path template.
type Pattern struct {
	raw      string
	names    []string
	template *Template
}

// Compile parses a path template. It fails with ErrRegexpPattern when the
// pattern looks like a regular expression.
func Compile(pattern string) (*Pattern, error) {
	if IsRegexp(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrRegexpPattern, pattern)
	}
	return &Pattern{
		raw:      pattern,
		names:    ParamNames(pattern),
		template: NewTemplate(pattern),
	}, nil
}

// String returns the original pattern.
func (p *Pattern) String() string {
	return p.raw
}

// Names returns the placeholder names in the order they appear.
func (p *Pattern) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Render substitutes values into the pattern's template.
func (p *Pattern) Render(values map[string]any) string {
	return p.template.Render(values)
}

// Zip pairs positional values with the pattern's names. Extra values are
// ignored; missing ones are left out of the map.
func (p *Pattern) Zip(values []any) map[string]any {
	out := make(map[string]any, len(p.names))
	for i, name := range p.names {
		if i >= len(values) {
			break
		}
		out[name] = values[i]
	}
	return out
}

// IsRegexp reports whether pattern is a raw regular expression.
func IsRegexp(pattern string) bool {
	if strings.HasPrefix(pattern, "^") || strings.HasSuffix(pattern, "$") {
		return true
	}
	return strings.ContainsAny(pattern, regexpMarkers) || strings.Contains(pattern, "(?")
}

// ParamNames scans pattern left to right and returns every ":name" and
// "*name" placeholder.
func ParamNames(pattern string) []string {
	matches := paramMatcher.FindAllStringSubmatch(pattern, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
