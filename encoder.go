package hxnav

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/pthm/hxnav/lib/encoding"
)

// LinkEncoder seals transition requests into URL-safe tokens so that links
// rendered by the server can be dispatched later without trusting the client
// to pick the state or its params.
type LinkEncoder struct {
	enc *encoding.Encoder
}

// NewLinkEncoder creates a LinkEncoder with key.
func NewLinkEncoder(key []byte) (*LinkEncoder, error) {
	enc, err := encoding.NewEncoder(key)
	if err != nil {
		return nil, err
	}
	return &LinkEncoder{enc: enc}, nil
}

// MustNewLinkEncoder is like NewLinkEncoder but panics on error.
func MustNewLinkEncoder(key []byte) *LinkEncoder {
	e, err := NewLinkEncoder(key)
	if err != nil {
		panic(fmt.Sprintf("hxnav: failed to create link encoder: %v", err))
	}
	return e
}

// Seal encodes req. Encrypted tokens hide the state and params from the client.
func (e *LinkEncoder) Seal(req TransitionRequest, encrypt bool) (string, error) {
	return e.enc.Seal(tokenRequest(req), encrypt)
}

// Open verifies or decrypts token.
func (e *LinkEncoder) Open(token string) (TransitionRequest, error) {
	var tr tokenRequest
	if err := e.enc.Open(token, &tr); err != nil {
		return TransitionRequest{}, WrapTokenError(err)
	}
	return TransitionRequest(tr), nil
}

// Encoder returns the registry's link encoder. Without WithLinkKey a random
// key is generated, so tokens do not survive a restart.
func (r *Registry) Encoder() *LinkEncoder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("hxnav: failed to generate link key: %v", err))
		}
		r.encoder = MustNewLinkEncoder(key)
	}
	return r.encoder
}

// GoToken opens a sealed request and dispatches it with Go semantics.
func (r *Registry) GoToken(ctx context.Context, token string) error {
	req, err := r.Encoder().Open(token)
	if err != nil {
		return err
	}
	return r.Go(ctx, req.State, req.Params, req.Options)
}

// tokenRequest is the wire form of a TransitionRequest.
type tokenRequest TransitionRequest

func (t tokenRequest) MarshalToken() map[string]any {
	m := map[string]any{
		"s": t.State,
		"k": int(t.Params.Kind()),
	}
	switch t.Params.Kind() {
	case KindPositional:
		m["p"] = t.Params.Values()
	case KindNamed:
		m["p"] = t.Params.Map()
	case KindValue:
		m["p"] = t.Params.Raw()
	}
	if t.Options.Navigate != nil {
		m["n"] = *t.Options.Navigate
	}
	if t.Options.Replace {
		m["r"] = true
	}
	return m
}

func (t *tokenRequest) UnmarshalToken(m map[string]any) error {
	state, ok := m["s"].(string)
	if !ok || state == "" {
		return fmt.Errorf("%w: missing state", encoding.ErrInvalidFormat)
	}
	t.State = state

	switch ParamsKind(toInt(m["k"])) {
	case KindPositional:
		values, _ := m["p"].([]any)
		t.Params = Positional(values...)
	case KindNamed:
		named, _ := m["p"].(map[string]any)
		t.Params = Named(named)
	case KindValue:
		t.Params = Value(m["p"])
	default:
		t.Params = Params{}
	}

	if n, ok := m["n"].(bool); ok {
		t.Options.Navigate = &n
	}
	if r, ok := m["r"].(bool); ok {
		t.Options.Replace = r
	}
	return nil
}

// toInt converts msgpack's integer representations to int.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
