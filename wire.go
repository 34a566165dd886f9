package hxnav

import (
	"encoding/json"

	"github.com/a-h/templ"
)

// DefaultEndpoint is where server adapters mount the dispatch handler.
const DefaultEndpoint = "/_nav/go"

// Form fields read by the dispatch handler.
const (
	FieldState   = "state"
	FieldHref    = "href"
	FieldOptions = "options"
	FieldToken   = "token"
)

// WireAttrs builds htmx attributes that POST a state link to endpoint,
// so the transition runs on the server:
//
//	<button { hxnav.WireAttrs(hxnav.DefaultEndpoint, "section", hxnav.Positional(id), nil, hxnav.SwapNone)... }>
//
// An empty swap leaves hx-swap unset.
func WireAttrs(endpoint, state string, params Params, opts *TransitionOptions, swap SwapMode) templ.Attributes {
	attrs := templ.Attributes{"hx-post": endpoint}

	link := LinkAttrs(state, params, opts)
	vals := map[string]string{FieldState: link[AttrState].(string)}
	if raw, ok := link[AttrStateOptions].(string); ok {
		vals[FieldOptions] = raw
	}
	data, _ := json.Marshal(vals)
	attrs["hx-vals"] = string(data)

	if swap != "" {
		attrs["hx-swap"] = string(swap)
	}
	return attrs
}

// WireTokenAttrs is like WireAttrs but posts a sealed request instead of a
// readable state attribute.
func (r *Registry) WireTokenAttrs(endpoint string, req TransitionRequest, encrypt bool, swap SwapMode) (templ.Attributes, error) {
	token, err := r.Encoder().Seal(req, encrypt)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(map[string]string{FieldToken: token})
	attrs := templ.Attributes{
		"hx-post": endpoint,
		"hx-vals": string(data),
	}
	if swap != "" {
		attrs["hx-swap"] = string(swap)
	}
	return attrs, nil
}
