package hxnav

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// DefaultWildcardState receives URLs that no state matches.
const DefaultWildcardState = "*"

// Registry is the process-wide navigation state: every manager ever
// created (in creation order), the shared bus, the active manager and the
// URL the page was loaded with.
//
// Most applications use the package-level Default registry through Go and
// GoByURL. Tests create their own registries or call Reset.
type Registry struct {
	mu        sync.Mutex
	managers  []*Manager
	active    *Manager
	observers []Observer

	bus     *Bus
	onload  *atomic.String
	encoder *LinkEncoder

	logger          *slog.Logger
	wildcard        string
	segmentFallback bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver adds an observer that sees every lifecycle event.
func WithObserver(obs Observer) Option {
	return func(r *Registry) {
		if obs != nil {
			r.observers = append(r.observers, obs)
		}
	}
}

// WithOnloadURL records the URL the page was loaded with. The first route
// match on that URL is treated as a load instead of a transition.
func WithOnloadURL(url string) Option {
	return func(r *Registry) {
		r.onload.Store(normalizeURL(url))
	}
}

// WithWildcardState changes the state that receives unmatched URLs.
func WithWildcardState(state string) Option {
	return func(r *Registry) {
		if state != "" {
			r.wildcard = state
		}
	}
}

// WithSegmentFallback makes GoByURL try ParseSegments before falling back
// to the wildcard state.
func WithSegmentFallback() Option {
	return func(r *Registry) {
		r.segmentFallback = true
	}
}

// WithLinkKey sets the key used to seal and open state-link tokens.
func WithLinkKey(key []byte) Option {
	return func(r *Registry) {
		r.encoder = MustNewLinkEncoder(key)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		bus:      NewBus(),
		onload:   atomic.NewString(""),
		logger:   slog.Default(),
		wildcard: DefaultWildcardState,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Default returns the package-level registry, creating it on first use.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}
	return defaultRegistry
}

// SetDefault replaces the package-level registry.
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = r
}

// Go publishes a transition request on the Default registry.
func Go(ctx context.Context, state string, params Params, opts TransitionOptions) error {
	return Default().Go(ctx, state, params, opts)
}

// GoByURL resolves url on the Default registry and dispatches it.
func GoByURL(ctx context.Context, url string, opts TransitionOptions) error {
	return Default().GoByURL(ctx, url, opts)
}

// Reset forgets every manager, subscription, the active manager and the
// on-load URL. Routes already registered with host routers are not removed.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.managers = nil
	r.active = nil
	r.mu.Unlock()

	r.bus.reset()
	r.onload.Store("")
}

// Bus returns the registry's bus.
func (r *Registry) Bus() *Bus {
	return r.bus
}

// Logger returns the registry logger.
func (r *Registry) Logger() *slog.Logger {
	return r.logger
}

// WildcardState returns the state that receives unmatched URLs.
func (r *Registry) WildcardState() string {
	return r.wildcard
}

// Managers returns every registered manager in creation order.
func (r *Registry) Managers() []*Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Manager(nil), r.managers...)
}

// Active returns the active manager, or nil before the first transition.
func (r *Registry) Active() *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Observe adds an observer at runtime.
func (r *Registry) Observe(obs Observer) {
	if obs == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, obs)
}

// OnloadURL returns the on-load URL if it has not been consumed yet.
func (r *Registry) OnloadURL() string {
	return r.onload.Load()
}

// SetOnloadURL records the page's initial URL, re-arming the load guard.
func (r *Registry) SetOnloadURL(url string) {
	r.onload.Store(normalizeURL(url))
}

// Go publishes a transition to state. Missing params become an empty
// positional list, and positional params get a trailing nil that reserves
// the raw query slot.
//
// The returned error is a configuration error from the owning manager, if
// any. Handler failures never surface here.
func (r *Registry) Go(ctx context.Context, state string, params Params, opts TransitionOptions) error {
	return r.publish(ctx, TransitionRequest{
		State:   state,
		Params:  params.withQuerySlot(),
		Options: opts,
	})
}

// GoByURL dispatches the state that owns url. The managers created last are
// searched first. When nothing matches, the wildcard state receives the raw
// path as its only parameter.
func (r *Registry) GoByURL(ctx context.Context, url string, opts TransitionOptions) error {
	if res, ok := r.Resolve(url); ok {
		return r.publish(ctx, TransitionRequest{
			State:   res.State,
			Params:  Positional(res.Args...),
			Options: opts,
		})
	}

	path, query, _ := strings.Cut(url, "?")
	if r.segmentFallback {
		state, args := ParseSegments(path)
		if state != "" && r.bus.HasSubscribers(state) {
			return r.publish(ctx, TransitionRequest{
				State:   state,
				Params:  Positional(append(args, query)...),
				Options: opts,
			})
		}
	}

	return r.publish(ctx, TransitionRequest{
		State:   r.wildcard,
		Params:  Positional(path),
		Options: opts,
	})
}

// Resolution is the state that owns a URL.
type Resolution struct {
	Manager *Manager
	State   string
	Args    []any
}

// Resolve finds the state whose pattern matches url. Managers are searched
// most recently created first and, within a manager, most recently
// registered state first.
func (r *Registry) Resolve(url string) (Resolution, bool) {
	fragment := normalizeURL(url)
	managers := r.Managers()
	for i := len(managers) - 1; i >= 0; i-- {
		m := managers[i]
		for j := len(m.states) - 1; j >= 0; j-- {
			cs := m.states[j]
			if !cs.hasURL() || !cs.matcher.Match(fragment) {
				continue
			}
			return Resolution{
				Manager: m,
				State:   cs.ID,
				Args:    m.router.ExtractParameters(cs.matcher, fragment),
			}, true
		}
	}
	return Resolution{}, false
}

// ParseSegments maps a path onto a dotted state id: even segments name the
// state, odd segments become arguments and contribute "detail".
//
//	"/users/42/posts" => "users.detail.posts", ["42"]
func ParseSegments(path string) (string, []any) {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	var (
		sb   strings.Builder
		args = []any{}
	)
	for i, seg := range segments {
		if i%2 == 1 {
			args = append(args, seg)
			sb.WriteString("detail")
		} else {
			sb.WriteString(seg)
		}
		if i != len(segments)-1 {
			sb.WriteByte('.')
		}
	}
	return sb.String(), args
}

func (r *Registry) publish(ctx context.Context, req TransitionRequest) error {
	n, err := r.bus.Publish(ctx, req)
	if n == 0 {
		r.logger.Warn("no manager owns state", "state", req.State)
	}
	if err != nil {
		return fmt.Errorf("hxnav: go %q: %w", req.State, err)
	}
	return nil
}

func (r *Registry) register(m *Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers = append(r.managers, m)
}

// setActive makes m the active manager and returns the previous one.
func (r *Registry) setActive(m *Manager) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.active
	r.active = m
	return prev
}

// consumeOnload returns the on-load URL and clears it.
func (r *Registry) consumeOnload() string {
	return r.onload.Swap("")
}

func (r *Registry) observe(ctx context.Context, ev Event) {
	r.mu.Lock()
	obs := multiObserver(append([]Observer(nil), r.observers...))
	r.mu.Unlock()
	obs.OnEvent(ctx, ev)
}
