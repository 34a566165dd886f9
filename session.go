package hxnav

import (
	"context"
	"sync"
)

// Session is the navigation state of one client when a single registry
// serves many of them, such as an HTTP server. A dispatch whose context
// carries a session compares against and updates the session's URL and
// active manager instead of the shared host router and registry.
//
//	s := hxnav.NewSession(browserURL, reg.ManagerFor(browserURL))
//	err := reg.Go(hxnav.WithSession(ctx, s), "section", hxnav.Positional("42"), opts)
type Session struct {
	mu     sync.Mutex
	url    string
	active *Manager
}

// NewSession creates a session for a client currently at url, with active
// as its active manager (nil when unknown).
func NewSession(url string, active *Manager) *Session {
	return &Session{url: normalizeURL(url), active: active}
}

// URL returns the client's current URL, without a leading slash.
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Active returns the client's active manager.
func (s *Session) Active() *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) setURL(url string) {
	s.mu.Lock()
	s.url = normalizeURL(url)
	s.mu.Unlock()
}

func (s *Session) setActive(m *Manager) *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.active
	s.active = m
	return prev
}

type sessionKey struct{}

// WithSession scopes the dispatches made with ctx to s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session carried by ctx.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// ManagerFor returns the manager owning url, or nil when no URL state
// matches.
func (r *Registry) ManagerFor(url string) *Manager {
	if res, ok := r.Resolve(url); ok {
		return res.Manager
	}
	return nil
}

// activate makes m active for the dispatch running on ctx and returns the
// previously active manager.
func (m *Manager) activate(ctx context.Context) *Manager {
	if s, ok := SessionFrom(ctx); ok {
		return s.setActive(m)
	}
	return m.registry.setActive(m)
}

// currentURL is the URL navigation is compared against for ctx.
func (m *Manager) currentURL(ctx context.Context) string {
	if s, ok := SessionFrom(ctx); ok {
		return s.URL()
	}
	return normalizeURL(m.router.Current())
}

// navigate records url in the history of the dispatch running on ctx.
func (m *Manager) navigate(ctx context.Context, url string, opts TransitionOptions) {
	if s, ok := SessionFrom(ctx); ok {
		s.setURL(url)
		return
	}
	m.router.Navigate(url, NavigateOptions{Replace: opts.Replace})
}
