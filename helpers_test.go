package hxnav

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateAttr(t *testing.T) {
	tests := []struct {
		name   string
		state  string
		params Params
		want   string
	}{
		{"positional", "section", Positional("42"), `section(["42"])`},
		{"positional mixed", "page", Positional("a", 2, nil), `page(["a",2,null])`},
		{"named", "search", Named(map[string]any{"q": "go"}), `search({"q":"go"})`},
		{"value", "count", Value(3), `count(3)`},
		{"none", "home", Params{}, `home()`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StateAttr(tt.state, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateAttrUnencodable(t *testing.T) {
	_, err := StateAttr("bad", Value(make(chan int)))
	assert.Error(t, err)
}

func TestParseStateAttr(t *testing.T) {
	tests := []struct {
		name  string
		attr  string
		state string
		kind  ParamsKind
		args  []any
	}{
		{"positional", `section(["42", 7])`, "section", KindPositional, []any{"42", json.Number("7"), nil}},
		{"empty args", `home()`, "home", KindPositional, []any{nil}},
		{"blank args", `home(  )`, "home", KindPositional, []any{nil}},
		{"named", `search({"q":"go"})`, "search", KindNamed, []any{map[string]any{"q": "go"}}},
		{"value", `count(3)`, "count", KindValue, []any{json.Number("3")}},
		{"string value with paren", `note("a)b")`, "note", KindValue, []any{"a)b"}},
		{"spaces around state", ` section (["1"])`, "section", KindPositional, []any{"1", nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, params, err := ParseStateAttr(tt.attr)
			require.NoError(t, err)
			assert.Equal(t, tt.state, state)
			assert.Equal(t, tt.kind, params.Kind())
			assert.Equal(t, tt.args, params.Args())
		})
	}
}

func TestParseStateAttrInvalid(t *testing.T) {
	for _, attr := range []string{
		"section",
		"(1)",
		"section([1]",
		"section([1)",
		"section({bad})",
	} {
		t.Run(attr, func(t *testing.T) {
			_, _, err := ParseStateAttr(attr)
			assert.True(t, errors.Is(err, ErrInvalidAttr), "got %v", err)
		})
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("")
	require.NoError(t, err)
	assert.True(t, opts.navigates())
	assert.False(t, opts.Replace)

	opts, err = ParseOptions(`{"navigate":false,"replace":true}`)
	require.NoError(t, err)
	assert.False(t, opts.navigates())
	assert.True(t, opts.Replace)

	_, err = ParseOptions(`{navigate}`)
	assert.True(t, errors.Is(err, ErrInvalidAttr))
}

func TestLinkAttrs(t *testing.T) {
	attrs := LinkAttrs("section", Positional("42"), nil)
	assert.Equal(t, `section(["42"])`, attrs[AttrState])
	assert.NotContains(t, attrs, AttrStateOptions)

	noNav := NoNavigate()
	attrs = LinkAttrs("section", Positional("42"), &noNav)
	assert.Equal(t, `{"navigate":false}`, attrs[AttrStateOptions])

	attrs = LinkAttrs("section", Positional("42"), &TransitionOptions{})
	assert.NotContains(t, attrs, AttrStateOptions)
}

func TestManagerLinkAttrs(t *testing.T) {
	reg := NewRegistry()
	m := reg.MustNewManager(NewMemoryRouter(), Config{States: []State{
		{ID: "section", URL: "section/:id", Transition: (&callLog{}).handle},
		{ID: "compose", Transition: (&callLog{}).handle},
	}})

	attrs := m.LinkAttrs("section", Positional("42"), nil)
	assert.Equal(t, "/section/42", attrs["href"])
	assert.Equal(t, `section(["42"])`, attrs[AttrState])

	attrs = m.LinkAttrs("compose", Positional("draft"), nil)
	assert.NotContains(t, attrs, "href")
}

func TestGoAttr(t *testing.T) {
	reg := NewRegistry()
	log := &callLog{}
	r := NewMemoryRouter()
	reg.MustNewManager(r, Config{States: []State{
		{ID: "section", URL: "section/:id", Transition: log.handle},
	}})
	ctx := context.Background()

	require.NoError(t, reg.GoAttr(ctx, `section(["42"])`, "", `{"replace":true}`))
	require.Len(t, log.calls, 1)
	assert.Equal(t, []any{"42", nil}, log.calls[0].Args)
	assert.Equal(t, []string{"section/42"}, r.History().Entries())

	// Without an attribute the href is resolved.
	require.NoError(t, reg.GoAttr(ctx, "", "/section/7?tab=2", ""))
	require.Len(t, log.calls, 2)
	assert.Equal(t, []any{"7", "tab=2"}, log.calls[1].Args)

	assert.Error(t, reg.GoAttr(ctx, "section", "", ""))
	assert.Error(t, reg.GoAttr(ctx, `section(["1"])`, "", "{"))
}
