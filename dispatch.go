package hxnav

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pthm/hxnav/lib/urlpattern"
)

// Dispatch runs a transition request against this manager. It is the bus
// entry point; applications normally call Registry.Go instead.
//
// The returned error is always a configuration error. Handler failures are
// reported through transitionError events.
func (m *Manager) Dispatch(ctx context.Context, req TransitionRequest) error {
	cs, ok := m.byID[req.State]
	if !ok {
		return nil
	}
	return m.handleTransition(ctx, cs, req.Params, req.Options, false)
}

// routeCallback runs when the host router matches one of this manager's
// states. The first match of the page's initial URL is a load; every other
// match is a transition whose URL is already in history.
func (m *Manager) routeCallback(cs *compiledState, args []any) {
	ctx := context.Background()

	onload := m.registry.consumeOnload()
	if onload != "" && normalizeURL(m.router.Current()) == onload {
		m.handleLoad(ctx, cs, args)
		return
	}

	if err := m.handleTransition(ctx, cs, Positional(args...), TransitionOptions{}, true); err != nil {
		m.registry.logger.Error("route transition failed",
			"manager", m.name,
			"state", cs.ID,
			"error", err,
		)
	}
}

// handleLoad fires the load handler of the state matching the initial URL.
func (m *Manager) handleLoad(ctx context.Context, cs *compiledState, args []any) {
	if cs.Load == nil {
		return
	}

	m.activate(ctx)

	tid := uuid.NewString()
	base := Event{State: cs.ID, TransitionID: tid, Args: args}
	m.emitPair(ctx, EventLoadStart, base)

	res := invoke(ctx, cs.Load, Call{State: cs.ID, Manager: m, Args: args}, PhaseLoad)
	if res.OK() {
		m.emitPair(ctx, EventLoadSuccess, base)
		return
	}
	base.Err = res.Err()
	m.emitPair(ctx, EventLoadError, base)
}

// handleTransition moves the registry to cs on this manager.
//
// Ordering within one call: exit on the previous manager, transitionStart,
// navigate, the handler, then transitionSuccess or transitionError.
func (m *Manager) handleTransition(ctx context.Context, cs *compiledState, params Params, opts TransitionOptions, historyUpdated bool) error {
	if cs.hasURL() && params.Kind() != KindPositional && params.Kind() != KindNamed {
		return configError(cs.ID, ErrInvalidParams)
	}

	if prev := m.activate(ctx); prev != nil && prev != m {
		prev.emit(ctx, Event{Name: EventExit})
	}

	tid := uuid.NewString()
	base := Event{State: cs.ID, TransitionID: tid}
	m.emitPair(ctx, EventTransitionStart, base)

	call := Call{State: cs.ID, Manager: m}
	if cs.hasURL() {
		url, args, err := cs.render(params)
		if err != nil {
			return err
		}
		if params.Kind() == KindNamed {
			args = m.router.ExtractParameters(cs.matcher, url)
			if args == nil {
				args = []any{}
			}
		}

		if opts.navigates() && !historyUpdated && normalizeURL(url) != m.currentURL(ctx) {
			m.navigate(ctx, url, opts)
			m.emit(ctx, Event{Name: EventNavigate, State: cs.ID, TransitionID: tid, URL: url})
		}

		call.Args = args
		call.Options = &CallOptions{URL: url}
	} else {
		call.Args = params.Args()
	}

	res := invoke(ctx, cs.Transition, call, PhaseTransition)
	if res.OK() {
		m.emitPair(ctx, EventTransitionSuccess, base)
		return nil
	}
	base.Err = res.Err()
	m.emitPair(ctx, EventTransitionError, base)
	return nil
}

// emitPair emits the global event followed by its state-scoped form.
func (m *Manager) emitPair(ctx context.Context, event string, ev Event) {
	ev.Name = event
	m.emit(ctx, ev)
	ev.Name = Scoped(event, ev.State)
	m.emit(ctx, ev)
}

// render computes the URL of a URL-backed state. For positional params it
// also returns the handler arguments: every value but the last as a string,
// then the last value (the raw query) untouched.
func (cs *compiledState) render(params Params) (string, []any, error) {
	switch params.Kind() {
	case KindPositional:
		values := params.Values()
		var (
			path  []any
			query any
		)
		if n := len(values); n > 0 {
			path, query = values[:n-1], values[n-1]
		}

		url := appendQuery(cs.pattern.Render(cs.pattern.Zip(path)), query)

		args := make([]any, 0, len(values))
		for _, v := range path {
			args = append(args, urlpattern.Stringify(v))
		}
		if len(values) > 0 {
			args = append(args, query)
		}
		return url, args, nil

	case KindNamed:
		return cs.pattern.Render(params.Map()), nil, nil

	default:
		return "", nil, configError(cs.ID, ErrInvalidParams)
	}
}

// appendQuery joins a raw query suffix to url with "?" or "&".
func appendQuery(url string, query any) string {
	q := strings.TrimPrefix(urlpattern.Stringify(query), "?")
	if q == "" {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&" + q
	}
	return url + "?" + q
}

// normalizeURL strips leading "#" and "/" so host URLs compare as fragments.
func normalizeURL(url string) string {
	return strings.TrimLeft(strings.TrimSpace(url), "#/")
}
