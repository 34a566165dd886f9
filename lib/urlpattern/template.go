package urlpattern

import (
	"fmt"
	"strings"
)

// Template renders concrete URLs from a path template. Optional-segment
// markers are dropped, so "docs(/:section)" renders as "docs/intro" or "docs/".
type Template struct {
	parts []templatePart
}

type templatePart struct {
	literal string
	param   string // empty for literal parts
}

// NewTemplate builds a template from pattern.
func NewTemplate(pattern string) *Template {
	stripped := strings.NewReplacer("(", "", ")", "").Replace(pattern)

	t := &Template{}
	last := 0
	for _, loc := range paramMatcher.FindAllStringSubmatchIndex(stripped, -1) {
		if loc[0] > last {
			t.parts = append(t.parts, templatePart{literal: stripped[last:loc[0]]})
		}
		t.parts = append(t.parts, templatePart{param: stripped[loc[2]:loc[3]]})
		last = loc[1]
	}
	if last < len(stripped) {
		t.parts = append(t.parts, templatePart{literal: stripped[last:]})
	}
	return t
}

// Render writes each placeholder's value in its exact string form, or ""
// when the value is absent or nil.
func (t *Template) Render(values map[string]any) string {
	var sb strings.Builder
	for _, p := range t.parts {
		if p.param == "" {
			sb.WriteString(p.literal)
			continue
		}
		sb.WriteString(Stringify(values[p.param]))
	}
	return sb.String()
}

// Stringify renders a parameter value. nil becomes "".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
