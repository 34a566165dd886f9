package hxnav

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg, rec := NewTestRegistry()
	boom := errors.New("boom")
	m1 := reg.MustNewManager(nil, Config{States: []State{{ID: "a", Transition: (&callLog{}).handle}}})
	m2 := reg.MustNewManager(nil, Config{States: []State{{ID: "b", Transition: (&callLog{err: boom}).handle}}})
	ctx := context.Background()

	require.NoError(t, reg.Go(ctx, "a", Positional(), TransitionOptions{}))
	require.NoError(t, reg.Go(ctx, "b", Positional(), TransitionOptions{}))

	assert.Equal(t, []string{
		"transitionStart", "transitionStart:a", "transitionSuccess", "transitionSuccess:a", "exit",
	}, rec.NamesFor(m1))
	assert.Equal(t, []string{
		"transitionStart", "transitionStart:b", "transitionError", "transitionError:b",
	}, rec.NamesFor(m2))

	assert.Len(t, rec.Events(), 9)
	assert.True(t, rec.Has("exit"))
	assert.False(t, rec.Has("loadStart"))
	assert.Equal(t, 4, rec.IndexOf(EventExit, nil))
	assert.Equal(t, -1, rec.IndexOf(EventExit, m2))

	errs := rec.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)

	rec.Reset()
	assert.Empty(t, rec.Events())
	assert.Empty(t, rec.Names())
}

func TestEventIDsGroupATransition(t *testing.T) {
	reg, rec := NewTestRegistry()
	reg.MustNewManager(nil, Config{States: []State{{ID: "a", Transition: (&callLog{}).handle}}})
	ctx := context.Background()

	require.NoError(t, reg.Go(ctx, "a", Positional(), TransitionOptions{}))
	require.NoError(t, reg.Go(ctx, "a", Positional(), TransitionOptions{}))

	events := rec.Events()
	require.Len(t, events, 8)
	first, second := events[0].TransitionID, events[4].TransitionID
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	for _, ev := range events[:4] {
		assert.Equal(t, first, ev.TransitionID)
		assert.Equal(t, "a", ev.State)
	}
}

func TestSlogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := NewRegistry(WithObserver(NewSlogObserver(logger)))
	reg.MustNewManager(nil, Config{
		Name:   "inbox",
		States: []State{{ID: "a", Transition: (&callLog{err: errors.New("boom")}).handle}},
	})

	require.NoError(t, reg.Go(context.Background(), "a", Positional(), TransitionOptions{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "level=DEBUG")
	assert.Contains(t, lines[0], "msg=transitionStart")
	assert.Contains(t, lines[0], "manager=inbox")
	assert.Contains(t, lines[2], "level=ERROR")
	assert.Contains(t, lines[2], "msg=transitionError")
	assert.Contains(t, lines[2], "boom")
}

func TestEventLevel(t *testing.T) {
	tests := []struct {
		ev   Event
		want slog.Level
	}{
		{Event{Name: "transitionStart"}, slog.LevelDebug},
		{Event{Name: "loadStart:section"}, slog.LevelDebug},
		{Event{Name: "transitionStarted"}, slog.LevelInfo},
		{Event{Name: "navigate"}, slog.LevelInfo},
		{Event{Name: "loadError", Err: errors.New("x")}, slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.ev.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventLevel(tt.ev))
		})
	}
}

func TestObserveAtRuntime(t *testing.T) {
	reg := NewRegistry()
	reg.MustNewManager(nil, Config{States: []State{{ID: "a", Transition: (&callLog{}).handle}}})

	var names []string
	reg.Observe(ObserverFunc(func(_ context.Context, ev Event) { names = append(names, ev.Name) }))
	reg.Observe(nil)

	require.NoError(t, reg.Go(context.Background(), "a", Positional(), TransitionOptions{}))
	assert.Equal(t, []string{
		"transitionStart", "transitionStart:a", "transitionSuccess", "transitionSuccess:a",
	}, names)
}
