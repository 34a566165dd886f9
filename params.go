package hxnav

import "fmt"

// ParamsKind tags the shape of a Params value.
type ParamsKind int

const (
	// KindNone is the zero value. Go normalizes it to an empty positional list.
	KindNone ParamsKind = iota
	// KindPositional is an ordered list of values.
	KindPositional
	// KindNamed is a name to value mapping.
	KindNamed
	// KindValue is an opaque payload, only accepted by states without a url.
	KindValue
)

func (k ParamsKind) String() string {
	switch k {
	case KindPositional:
		return "positional"
	case KindNamed:
		return "named"
	case KindValue:
		return "value"
	default:
		return "none"
	}
}

// Params is the parameter payload of a transition request.
//
// URL-backed states render their URL from the payload, branching on the
// kind: positional values are zipped against the url's placeholder names,
// named values are substituted directly.
type Params struct {
	kind       ParamsKind
	positional []any
	named      map[string]any
	value      any
}

// Positional builds an ordered parameter list.
func Positional(values ...any) Params {
	if values == nil {
		values = []any{}
	}
	return Params{kind: KindPositional, positional: values}
}

// Named builds a name to value parameter set.
func Named(values map[string]any) Params {
	if values == nil {
		values = map[string]any{}
	}
	return Params{kind: KindNamed, named: values}
}

// Value wraps an arbitrary payload for a state without a url.
func Value(v any) Params {
	return Params{kind: KindValue, value: v}
}

// Kind returns the tag.
func (p Params) Kind() ParamsKind {
	return p.kind
}

// Values returns the positional values, or nil for other kinds.
func (p Params) Values() []any {
	if p.kind != KindPositional {
		return nil
	}
	out := make([]any, len(p.positional))
	copy(out, p.positional)
	return out
}

// Map returns the named values, or nil for other kinds.
func (p Params) Map() map[string]any {
	if p.kind != KindNamed {
		return nil
	}
	out := make(map[string]any, len(p.named))
	for k, v := range p.named {
		out[k] = v
	}
	return out
}

// Raw returns the payload of a Value params.
func (p Params) Raw() any {
	return p.value
}

// Args flattens the payload into handler arguments, unchanged.
func (p Params) Args() []any {
	switch p.kind {
	case KindPositional:
		return p.Values()
	case KindNamed:
		return []any{p.Map()}
	case KindValue:
		return []any{p.value}
	default:
		return []any{}
	}
}

// withQuerySlot reserves the trailing slot later read as the raw query.
func (p Params) withQuerySlot() Params {
	switch p.kind {
	case KindNone:
		return Positional(nil)
	case KindPositional:
		return Positional(append(p.Values(), nil)...)
	default:
		return p
	}
}

func (p Params) String() string {
	switch p.kind {
	case KindPositional:
		return fmt.Sprintf("positional%v", p.positional)
	case KindNamed:
		return fmt.Sprintf("named%v", p.named)
	case KindValue:
		return fmt.Sprintf("value(%v)", p.value)
	default:
		return "none"
	}
}
