package hxnav

import (
	"fmt"

	"github.com/pthm/hxnav/lib/router"
)

// Matcher is an opaque compiled route produced by the host router.
type Matcher interface {
	Match(url string) bool
}

// RouteCallback receives the raw values the host router extracted from a
// matched URL. The last value is the query string, or nil.
type RouteCallback func(args []any)

// NavigateOptions are passed to Router.Navigate.
type NavigateOptions struct {
	Replace bool
}

// Router is the host router capability hxnav orchestrates around. hxnav
// never matches paths or touches history itself.
type Router interface {
	// RouteToMatcher compiles a path template.
	RouteToMatcher(pattern string) (Matcher, error)
	// Route registers cb to fire when m matches the live URL.
	Route(m Matcher, name string, cb RouteCallback)
	// ExtractParameters returns the values of url captured by m.
	ExtractParameters(m Matcher, url string) []any
	// Navigate records url in history without firing routes.
	Navigate(url string, opts NavigateOptions)
	// Current returns the live URL as path and query, without a leading slash.
	Current() string
}

// MemoryRouter adapts lib/router to the Router interface. It is the host
// router used by servers, the CLI and tests.
type MemoryRouter struct {
	*router.Router
}

// NewMemoryRouter creates an in-memory host router.
func NewMemoryRouter() *MemoryRouter {
	return &MemoryRouter{Router: router.New()}
}

func (r *MemoryRouter) RouteToMatcher(pattern string) (Matcher, error) {
	return router.RouteToRegExp(pattern)
}

func (r *MemoryRouter) Route(m Matcher, name string, cb RouteCallback) {
	rm, ok := m.(*router.Matcher)
	if !ok {
		panic(fmt.Sprintf("hxnav: MemoryRouter cannot route matcher of type %T", m))
	}
	r.Router.Route(rm, name, router.Callback(cb))
}

func (r *MemoryRouter) ExtractParameters(m Matcher, url string) []any {
	rm, ok := m.(*router.Matcher)
	if !ok {
		return nil
	}
	return router.ExtractParameters(rm, url)
}

func (r *MemoryRouter) Navigate(url string, opts NavigateOptions) {
	r.Router.Navigate(url, router.NavigateOptions{Replace: opts.Replace})
}
