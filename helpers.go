package hxnav

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a-h/templ"
)

// Attribute names understood by the hxnav click glue.
const (
	AttrState        = "x-state"
	AttrStateOptions = "x-state-options"
	AttrStateToken   = "x-state-token"
)

// StateAttr renders a declarative state attribute of the form
// "stateId(jsonArgs)":
//
//	StateAttr("section", Positional("42"))          // section(["42"])
//	StateAttr("search", Named(map[string]any{...})) // search({"q":"go"})
func StateAttr(state string, params Params) (string, error) {
	var payload any
	switch params.Kind() {
	case KindPositional:
		payload = params.Values()
	case KindNamed:
		payload = params.Map()
	case KindValue:
		payload = params.Raw()
	default:
		return state + "()", nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hxnav: encode args for %q: %w", state, err)
	}
	return state + "(" + string(data) + ")", nil
}

// ParseStateAttr parses a "stateId(jsonArgs)" attribute. JSON arrays become
// positional params with the trailing query slot already appended, objects
// become named params and any other JSON value becomes a Value. Numbers are
// kept as json.Number so they render exactly as written.
func ParseStateAttr(attr string) (string, Params, error) {
	state, rest, ok := strings.Cut(attr, "(")
	state = strings.TrimSpace(state)
	if !ok || state == "" {
		return "", Params{}, fmt.Errorf("%w: %q", ErrInvalidAttr, attr)
	}
	end := strings.LastIndex(rest, ")")
	if end < 0 {
		return "", Params{}, fmt.Errorf("%w: missing ')' in %q", ErrInvalidAttr, attr)
	}

	raw := strings.TrimSpace(rest[:end])
	if raw == "" {
		return state, Positional(nil), nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return "", Params{}, fmt.Errorf("%w: %q: %v", ErrInvalidAttr, attr, err)
	}

	switch v := payload.(type) {
	case []any:
		return state, Positional(append(v, nil)...), nil
	case map[string]any:
		return state, Named(v), nil
	default:
		return state, Value(v), nil
	}
}

// ParseOptions decodes a JSON options attribute. An empty string yields the
// zero options.
func ParseOptions(raw string) (TransitionOptions, error) {
	var opts TransitionOptions
	if strings.TrimSpace(raw) == "" {
		return opts, nil
	}
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return opts, fmt.Errorf("%w: options %q: %v", ErrInvalidAttr, raw, err)
	}
	return opts, nil
}

// GoAttr dispatches a clicked link the same way the browser glue does. An
// empty attr means "resolve by href".
func (r *Registry) GoAttr(ctx context.Context, attr, href, optionsJSON string) error {
	opts, err := ParseOptions(optionsJSON)
	if err != nil {
		return err
	}
	if strings.TrimSpace(attr) == "" {
		return r.GoByURL(ctx, href, opts)
	}

	state, params, err := ParseStateAttr(attr)
	if err != nil {
		return err
	}
	return r.publish(ctx, TransitionRequest{State: state, Params: params, Options: opts})
}

// LinkAttrs returns templ attributes that make an element navigate to state
// when clicked:
//
//	<a { hxnav.LinkAttrs("section", hxnav.Positional(id), nil)... }>Open</a>
func LinkAttrs(state string, params Params, opts *TransitionOptions) templ.Attributes {
	attrs := templ.Attributes{}

	value, err := StateAttr(state, params)
	if err != nil {
		value = state + "()"
	}
	attrs[AttrState] = value

	if opts != nil {
		if data, err := json.Marshal(opts); err == nil && string(data) != "{}" {
			attrs[AttrStateOptions] = string(data)
		}
	}
	return attrs
}

// LinkAttrs is like the package-level LinkAttrs and also sets href to the
// URL Go would navigate to, so the link still works without script.
func (m *Manager) LinkAttrs(state string, params Params, opts *TransitionOptions) templ.Attributes {
	attrs := LinkAttrs(state, params, opts)
	if url, err := m.URLFor(state, params.withQuerySlot()); err == nil && url != "" {
		attrs["href"] = "/" + normalizeURL(url)
	}
	return attrs
}

// TokenAttrs returns templ attributes carrying a sealed request instead of
// readable state and params.
func (r *Registry) TokenAttrs(req TransitionRequest, encrypt bool) (templ.Attributes, error) {
	token, err := r.Encoder().Seal(req, encrypt)
	if err != nil {
		return nil, err
	}
	return templ.Attributes{AttrStateToken: token}, nil
}
