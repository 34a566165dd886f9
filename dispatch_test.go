package hxnav

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callLog records handler invocations.
type callLog struct {
	calls []Call
	err   error
}

func (l *callLog) handle(_ context.Context, call Call) error {
	l.calls = append(l.calls, call)
	return l.err
}

func (l *callLog) last(t *testing.T) Call {
	t.Helper()
	require.NotEmpty(t, l.calls, "handler was not called")
	return l.calls[len(l.calls)-1]
}

func newSectionManager(t *testing.T, reg *Registry, log *callLog) (*Manager, *MemoryRouter) {
	t.Helper()
	r := NewMemoryRouter()
	m, err := reg.NewManager(r, Config{
		Name: "sections",
		States: []State{
			{ID: "section", URL: "section/:id", Transition: log.handle},
		},
	})
	require.NoError(t, err)
	return m, r
}

func TestTransitionPositionalURL(t *testing.T) {
	reg, rec := NewTestRegistry()
	log := &callLog{}
	m, r := newSectionManager(t, reg, log)

	err := m.Dispatch(context.Background(), TransitionRequest{
		State:  "section",
		Params: Positional("42", "x=1"),
	})
	require.NoError(t, err)

	call := log.last(t)
	assert.Equal(t, []any{"42", "x=1", CallOptions{URL: "section/42?x=1"}}, call.Arguments())
	assert.Equal(t, "section/42?x=1", call.URL())
	assert.Equal(t, "section/42?x=1", r.Current())

	nav, ok := rec.Find(EventNavigate)
	require.True(t, ok)
	assert.Equal(t, "section/42?x=1", nav.URL)
}

func TestTransitionQueryHandling(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantURL string
		args    []any
	}{
		{"reserved nil slot", Positional("42", nil), "section/42", []any{"42", nil}},
		{"empty query", Positional("42", ""), "section/42", []any{"42", ""}},
		{"leading question mark", Positional("42", "?x=1"), "section/42?x=1", []any{"42", "?x=1"}},
		{"url already has query", Positional("a?b=1", "c=2"), "section/a?b=1&c=2", []any{"a?b=1", "c=2"}},
		{"non-string coerced", Positional(7, nil), "section/7", []any{"7", nil}},
		{"nil path value", Positional(nil, nil), "section/", []any{"", nil}},
		{"empty", Positional(), "section/", []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			log := &callLog{}
			m, _ := newSectionManager(t, reg, log)

			require.NoError(t, m.Dispatch(context.Background(), TransitionRequest{State: "section", Params: tt.params}))

			call := log.last(t)
			assert.Equal(t, tt.wantURL, call.URL())
			assert.Equal(t, tt.args, call.Args)
		})
	}
}

func TestTransitionNamedParams(t *testing.T) {
	reg := NewRegistry()
	log := &callLog{}
	m, r := newSectionManager(t, reg, log)

	err := m.Dispatch(context.Background(), TransitionRequest{
		State:  "section",
		Params: Named(map[string]any{"id": "7"}),
	})
	require.NoError(t, err)

	call := log.last(t)
	assert.Equal(t, []any{"7", nil, CallOptions{URL: "section/7"}}, call.Arguments())
	assert.Equal(t, "section/7", r.Current())
}

func TestTransitionInvalidParamsForURLState(t *testing.T) {
	reg, rec := NewTestRegistry()
	log := &callLog{}
	newSectionManager(t, reg, log)

	err := reg.Go(context.Background(), "section", Value(3), TransitionOptions{})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.True(t, errors.Is(err, ErrInvalidParams))
	assert.Empty(t, log.calls)
	assert.Empty(t, rec.Names())
}

func TestTransitionWithoutURLPassesParamsUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   []any
	}{
		{"positional", Positional("a", 1), []any{"a", 1, nil}},
		{"none", Params{}, []any{nil}},
		{"named", Named(map[string]any{"k": "v"}), []any{map[string]any{"k": "v"}}},
		{"value", Value(3.5), []any{3.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			log := &callLog{}
			reg.MustNewManager(nil, Config{States: []State{{ID: "compose", Transition: log.handle}}})

			require.NoError(t, reg.Go(context.Background(), "compose", tt.params, TransitionOptions{}))

			call := log.last(t)
			assert.Equal(t, tt.want, call.Args)
			assert.Nil(t, call.Options)
			assert.Equal(t, tt.want, call.Arguments())
		})
	}
}

func TestTransitionNoNavigate(t *testing.T) {
	reg, rec := NewTestRegistry()
	log := &callLog{}
	_, r := newSectionManager(t, reg, log)
	r.Start("home")

	require.NoError(t, reg.Go(context.Background(), "section", Positional("1"), NoNavigate()))

	assert.Equal(t, "section/1", log.last(t).URL())
	assert.Equal(t, "home", r.Current())
	assert.False(t, rec.Has(EventNavigate))
}

func TestTransitionSkipsNavigateToCurrentURL(t *testing.T) {
	reg, rec := NewTestRegistry()
	log := &callLog{}
	_, r := newSectionManager(t, reg, log)
	r.Start("/section/1")

	require.NoError(t, reg.Go(context.Background(), "section", Positional("1"), TransitionOptions{}))

	assert.False(t, rec.Has(EventNavigate))
	assert.Equal(t, 1, r.History().Len())
}

func TestTransitionReplace(t *testing.T) {
	reg := NewRegistry()
	log := &callLog{}
	_, r := newSectionManager(t, reg, log)
	r.Start("home")

	require.NoError(t, reg.Go(context.Background(), "section", Positional("1"), TransitionOptions{Replace: true}))
	assert.Equal(t, []string{"section/1"}, r.History().Entries())
}

func TestTransitionEventOrder(t *testing.T) {
	reg, rec := NewTestRegistry()
	log := &callLog{}
	m, _ := newSectionManager(t, reg, log)

	var order []string
	m.On(EventTransitionStart, func(context.Context, Event) { order = append(order, "start") })
	m.On(EventTransitionSuccess, func(context.Context, Event) { order = append(order, "success") })
	m.On(EventNavigate, func(context.Context, Event) { order = append(order, "navigate") })

	require.NoError(t, reg.Go(context.Background(), "section", Positional("1"), TransitionOptions{}))

	assert.Equal(t, []string{"start", "navigate", "success"}, order)
	assert.Equal(t, []string{
		"transitionStart",
		"transitionStart:section",
		"navigate",
		"transitionSuccess",
		"transitionSuccess:section",
	}, rec.Names())
}

func TestExitFiresOnPreviousManagerFirst(t *testing.T) {
	reg, rec := NewTestRegistry()
	first := &callLog{}
	second := &callLog{}

	m1 := reg.MustNewManager(nil, Config{Name: "one", States: []State{{ID: "a", Transition: first.handle}}})
	m2 := reg.MustNewManager(nil, Config{Name: "two", States: []State{{ID: "b", Transition: second.handle}}})

	var exits int
	m1.On(EventExit, func(context.Context, Event) { exits++ })

	ctx := context.Background()
	require.NoError(t, reg.Go(ctx, "a", Params{}, TransitionOptions{}))
	assert.Same(t, m1, reg.Active())
	assert.Equal(t, -1, rec.IndexOf(EventExit, nil), "no exit on first activation")

	require.NoError(t, reg.Go(ctx, "b", Params{}, TransitionOptions{}))
	assert.Same(t, m2, reg.Active())
	assert.Equal(t, 1, exits)

	exitAt := rec.IndexOf(EventExit, m1)
	startAt := rec.IndexOf(EventTransitionStart, m2)
	require.NotEqual(t, -1, exitAt)
	require.NotEqual(t, -1, startAt)
	assert.Less(t, exitAt, startAt)

	// Staying on the same manager does not exit it.
	require.NoError(t, reg.Go(ctx, "b", Params{}, TransitionOptions{}))
	assert.Equal(t, 1, exits)
	assert.Equal(t, []string{EventExit}, filterNames(rec.NamesFor(m1), EventExit))
}

func filterNames(names []string, want string) []string {
	var out []string
	for _, n := range names {
		if n == want {
			out = append(out, n)
		}
	}
	return out
}

func TestHandlerErrorBecomesEvent(t *testing.T) {
	reg, rec := NewTestRegistry()
	boom := errors.New("boom")
	log := &callLog{err: boom}
	reg.MustNewManager(nil, Config{States: []State{{ID: "a", Transition: log.handle}}})

	err := reg.Go(context.Background(), "a", Positional(), TransitionOptions{})
	require.NoError(t, err, "handler errors are not returned")

	ev, ok := rec.Find("transitionError:a")
	require.True(t, ok)
	assert.True(t, errors.Is(ev.Err, boom))
	assert.True(t, IsHandlerError(ev.Err))

	global, ok := rec.Find(EventTransitionError)
	require.True(t, ok)
	assert.True(t, errors.Is(global.Err, boom))
	assert.False(t, rec.Has(EventTransitionSuccess))
}

func TestHandlerPanicBecomesEvent(t *testing.T) {
	reg, rec := NewTestRegistry()
	reg.MustNewManager(nil, Config{States: []State{{
		ID: "a",
		Transition: func(context.Context, Call) error {
			panic("kaboom")
		},
	}}})

	assert.NotPanics(t, func() {
		require.NoError(t, reg.Go(context.Background(), "a", Positional(), TransitionOptions{}))
	})

	ev, ok := rec.Find("transitionError:a")
	require.True(t, ok)
	assert.True(t, errors.Is(ev.Err, ErrHandlerPanic))
	assert.Contains(t, ev.Err.Error(), "kaboom")
}

func TestGoTwiceIsNotMemoized(t *testing.T) {
	reg, rec := NewTestRegistry()
	log := &callLog{}
	newSectionManager(t, reg, log)
	ctx := context.Background()

	require.NoError(t, reg.Go(ctx, "section", Positional("1"), TransitionOptions{}))
	first := rec.Names()
	rec.Reset()

	require.NoError(t, reg.Go(ctx, "section", Positional("1"), TransitionOptions{}))
	second := rec.Names()

	require.Len(t, log.calls, 2)
	assert.Equal(t, log.calls[0].Arguments(), log.calls[1].Arguments())
	// The second run has no navigate: history already holds the URL.
	assert.Equal(t, filterOut(first, EventNavigate), second)
}

func filterOut(names []string, drop string) []string {
	var out []string
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

func TestGoTwiceWithoutURLIdentical(t *testing.T) {
	reg, rec := NewTestRegistry()
	log := &callLog{}
	reg.MustNewManager(nil, Config{States: []State{{ID: "a", Transition: log.handle}}})
	ctx := context.Background()

	require.NoError(t, reg.Go(ctx, "a", Positional("x"), TransitionOptions{}))
	first := rec.Names()
	rec.Reset()
	require.NoError(t, reg.Go(ctx, "a", Positional("x"), TransitionOptions{}))

	assert.Equal(t, first, rec.Names())
	require.Len(t, log.calls, 2)
	assert.Equal(t, log.calls[0].Args, log.calls[1].Args)
}

func TestReentrantGo(t *testing.T) {
	reg := NewRegistry()
	inner := &callLog{}
	reg.MustNewManager(nil, Config{States: []State{
		{ID: "inner", Transition: inner.handle},
		{ID: "outer", Transition: func(ctx context.Context, call Call) error {
			return call.Manager.Registry().Go(ctx, "inner", Positional("from-outer"), TransitionOptions{})
		}},
	}})

	require.NoError(t, reg.Go(context.Background(), "outer", Positional(), TransitionOptions{}))
	assert.Equal(t, []any{"from-outer", nil}, inner.last(t).Args)
}

func TestLoadOnInitialURL(t *testing.T) {
	reg, rec := NewTestRegistry(WithOnloadURL("/section/5"))
	load := &callLog{}
	transition := &callLog{}
	r := NewMemoryRouter()
	m := reg.MustNewManager(r, Config{States: []State{
		{ID: "section", URL: "section/:id", Transition: transition.handle, Load: load.handle},
	}})

	r.Start("section/5")

	require.Len(t, load.calls, 1)
	assert.Equal(t, []any{"5", nil}, load.calls[0].Args)
	assert.Empty(t, transition.calls)
	assert.Same(t, m, reg.Active())
	assert.Equal(t, "", reg.OnloadURL(), "on-load URL is consumed")
	assert.Equal(t, []string{
		"loadStart",
		"loadStart:section",
		"loadSuccess",
		"loadSuccess:section",
	}, rec.Names())

	// The same URL matching again is a transition, with history already updated.
	rec.Reset()
	r.LoadURL("section/5")
	require.Len(t, load.calls, 1)
	require.Len(t, transition.calls, 1)
	assert.Equal(t, []any{"5", nil}, transition.calls[0].Args)
	assert.Equal(t, "section/5", transition.calls[0].URL())
	assert.False(t, rec.Has(EventNavigate))
}

func TestLoadErrorBecomesEvent(t *testing.T) {
	reg, rec := NewTestRegistry(WithOnloadURL("section/5"))
	boom := errors.New("load failed")
	load := &callLog{err: boom}
	r := NewMemoryRouter()
	reg.MustNewManager(r, Config{States: []State{
		{ID: "section", URL: "section/:id", Transition: (&callLog{}).handle, Load: load.handle},
	}})

	assert.NotPanics(t, func() { r.Start("section/5") })

	ev, ok := rec.Find("loadError:section")
	require.True(t, ok)
	assert.True(t, errors.Is(ev.Err, boom))
	assert.False(t, rec.Has(EventExit))
}

func TestInitialURLWithoutLoadHandler(t *testing.T) {
	reg, rec := NewTestRegistry(WithOnloadURL("section/5"))
	transition := &callLog{}
	r := NewMemoryRouter()
	reg.MustNewManager(r, Config{States: []State{
		{ID: "section", URL: "section/:id", Transition: transition.handle},
	}})

	r.Start("section/5")

	assert.Empty(t, transition.calls)
	assert.Empty(t, rec.Names())
	assert.Equal(t, "", reg.OnloadURL())
	assert.Nil(t, reg.Active())
}

func TestRouteMatchOnOtherURLIsTransition(t *testing.T) {
	reg, rec := NewTestRegistry(WithOnloadURL("home"))
	load := &callLog{}
	transition := &callLog{}
	r := NewMemoryRouter()
	reg.MustNewManager(r, Config{States: []State{
		{ID: "section", URL: "section/:id", Transition: transition.handle, Load: load.handle},
	}})

	r.Start("section/9")

	assert.Empty(t, load.calls)
	require.Len(t, transition.calls, 1)
	assert.Equal(t, []any{"9", nil}, transition.calls[0].Args)
	assert.Equal(t, "", reg.OnloadURL(), "any route match consumes the on-load URL")
	assert.True(t, rec.Has("transitionSuccess:section"))
}

func TestBackNavigationDispatchesWithoutNavigate(t *testing.T) {
	reg, rec := NewTestRegistry()
	log := &callLog{}
	_, r := newSectionManager(t, reg, log)
	ctx := context.Background()

	require.NoError(t, reg.Go(ctx, "section", Positional("1"), TransitionOptions{}))
	require.NoError(t, reg.Go(ctx, "section", Positional("2"), TransitionOptions{}))
	rec.Reset()

	require.True(t, r.Back())
	assert.Equal(t, "section/1", log.last(t).URL())
	assert.False(t, rec.Has(EventNavigate))
	assert.Equal(t, "section/1", r.Current())
}
