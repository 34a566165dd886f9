package hxnav

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config declares a manager's states and event table.
type Config struct {
	// Name labels the manager in logs. Defaults to "manager-<id prefix>".
	Name string
	// States are registered in order. Later states win when several URL
	// patterns match the same URL.
	States []State
	// Events binds lifecycle event names (e.g. "exit",
	// "transitionError:section") to handlers on this manager.
	Events map[string]EventHandler
	// Initialize runs once after the manager is registered.
	Initialize func(m *Manager) error
}

// Manager owns a set of states, binds them to a host router and to the
// registry bus, and emits lifecycle events as they are entered and left.
//
// A manager lives as long as its registry. Create one with
// Registry.NewManager:
//
//	m, err := reg.NewManager(router, hxnav.Config{
//	    States: []hxnav.State{
//	        {ID: "section", URL: "section/:id", Transition: v.showSection},
//	        {ID: "settings", Transition: v.showSettings},
//	    },
//	    Events: map[string]hxnav.EventHandler{
//	        hxnav.EventExit: v.teardown,
//	    },
//	})
type Manager struct {
	id       string
	name     string
	registry *Registry
	router   Router

	states []*compiledState
	byID   map[string]*compiledState

	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

// NewManager validates cfg, registers every URL-backed state with router,
// subscribes every state on the registry bus and appends the manager to the
// registry. Configuration mistakes are returned before anything is
// registered.
func (r *Registry) NewManager(router Router, cfg Config) (*Manager, error) {
	compiled := make([]*compiledState, 0, len(cfg.States))
	byID := make(map[string]*compiledState, len(cfg.States))
	for _, st := range cfg.States {
		if _, dup := byID[st.ID]; dup {
			return nil, configError(st.ID, ErrDuplicateState)
		}
		cs, err := compileState(st)
		if err != nil {
			return nil, err
		}
		if cs.hasURL() {
			if router == nil {
				return nil, configError(st.ID, fmt.Errorf("url state needs a router"))
			}
			if cs.matcher, err = router.RouteToMatcher(st.URL); err != nil {
				return nil, configError(st.ID, err)
			}
		}
		compiled = append(compiled, cs)
		byID[st.ID] = cs
	}

	id := uuid.NewString()
	m := &Manager{
		id:       id,
		name:     cfg.Name,
		registry: r,
		router:   router,
		states:   compiled,
		byID:     byID,
		handlers: make(map[string][]EventHandler),
	}
	if m.name == "" {
		m.name = "manager-" + id[:8]
	}

	for _, cs := range compiled {
		cs := cs
		if cs.hasURL() {
			router.Route(cs.matcher, cs.ID, func(args []any) {
				m.routeCallback(cs, args)
			})
		}
		r.bus.Subscribe(cs.ID, m)
	}

	for event, h := range cfg.Events {
		m.On(event, h)
	}

	r.register(m)
	r.logger.Debug("manager registered",
		"manager", m.name,
		"manager_id", m.id,
		"states", len(compiled),
	)

	if cfg.Initialize != nil {
		if err := cfg.Initialize(m); err != nil {
			return m, fmt.Errorf("hxnav: initialize %s: %w", m.name, err)
		}
	}
	return m, nil
}

// MustNewManager is like NewManager but panics on error.
func (r *Registry) MustNewManager(router Router, cfg Config) *Manager {
	m, err := r.NewManager(router, cfg)
	if err != nil {
		panic(err)
	}
	return m
}

// ID returns the manager's unique identifier.
func (m *Manager) ID() string {
	return m.id
}

// Name returns the manager's name.
func (m *Manager) Name() string {
	return m.name
}

// Router returns the host router the manager is bound to.
func (m *Manager) Router() Router {
	return m.router
}

// Registry returns the registry the manager belongs to.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// States returns the state ids in registration order.
func (m *Manager) States() []string {
	ids := make([]string, len(m.states))
	for i, cs := range m.states {
		ids[i] = cs.ID
	}
	return ids
}

// ParamNames returns the url placeholder names of a state, in order.
func (m *Manager) ParamNames(state string) ([]string, bool) {
	cs, ok := m.byID[state]
	if !ok || !cs.hasURL() {
		return nil, ok
	}
	return cs.pattern.Names(), true
}

// HasState reports whether the manager owns state.
func (m *Manager) HasState(state string) bool {
	_, ok := m.byID[state]
	return ok
}

// IsActive reports whether this manager is the registry's active manager.
func (m *Manager) IsActive() bool {
	return m.registry.Active() == m
}

// On binds h to a lifecycle event emitted on this manager.
func (m *Manager) On(event string, h EventHandler) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], h)
}

// Off removes every handler bound to event.
func (m *Manager) Off(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, event)
}

// Trigger emits a custom event on this manager.
func (m *Manager) Trigger(ctx context.Context, event string, ev Event) {
	ev.Name = event
	m.emit(ctx, ev)
}

// emit runs this manager's handlers for ev, then the registry observers.
func (m *Manager) emit(ctx context.Context, ev Event) {
	ev.Manager = m
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	m.mu.RLock()
	handlers := append([]EventHandler(nil), m.handlers[ev.Name]...)
	m.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, ev)
	}
	m.registry.observe(ctx, ev)
}

// URLFor renders the URL of a state without dispatching anything. Positional
// params follow the same rules as a transition: the last value is the raw
// query string.
func (m *Manager) URLFor(state string, params Params) (string, error) {
	cs, ok := m.byID[state]
	if !ok {
		return "", fmt.Errorf("hxnav: unknown state %q", state)
	}
	if !cs.hasURL() {
		return "", nil
	}
	url, _, err := cs.render(params)
	return url, err
}
