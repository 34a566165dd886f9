// Package router is an in-memory host router: it turns path templates into
// regular expressions, keeps a history stack of fragments, and fires route
// callbacks when a fragment is loaded.
//
// It follows the matching rules of the classic hash/pushState routers that
// hxnav was designed against:
//
//	"section/:id"      matches "section/42" and "section/42?x=1"
//	"files/*path"      matches "files/a/b/c"
//	"docs(/:section)"  matches "docs" and "docs/intro"
//
// The query string, if any, is always reported as the last extracted value.
package router

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

var (
	optionalParam = regexp.MustCompile(`\((.*?)\)`)
	namedParam    = regexp.MustCompile(`(\(\?)?:\w+`)
	splatParam    = regexp.MustCompile(`\*\w+`)
	escapeRegExp  = regexp.MustCompile(`[\-{}\[\]+?.,\\\^$|#\s]`)
)

// Matcher is a compiled route pattern.
type Matcher struct {
	pattern string
	re      *regexp.Regexp
}

// Match reports whether fragment matches the route.
func (m *Matcher) Match(fragment string) bool {
	return m.re.MatchString(fragment)
}

// Pattern returns the template the matcher was compiled from.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// String returns the compiled regular expression.
func (m *Matcher) String() string {
	return m.re.String()
}

// Callback is invoked with the extracted parameters when a route matches.
type Callback func(args []any)

type route struct {
	matcher  *Matcher
	name     string
	callback Callback
}

// NavigateOptions control Navigate.
type NavigateOptions struct {
	// Trigger fires the matching route callback after the fragment changes.
	Trigger bool
	// Replace overwrites the current history entry instead of pushing.
	Replace bool
}

// Router holds registered routes and the navigation history.
type Router struct {
	mu      sync.Mutex
	routes  []route
	history *History
}

// New creates a router with an empty history.
func New() *Router {
	return &Router{history: NewHistory()}
}

// RouteToRegExp compiles a path template into a matcher.
func RouteToRegExp(pattern string) (*Matcher, error) {
	src := escapeRegExp.ReplaceAllStringFunc(pattern, regexp.QuoteMeta)
	src = optionalParam.ReplaceAllString(src, `(?:$1)?`)
	src = namedParam.ReplaceAllStringFunc(src, func(s string) string {
		if strings.HasPrefix(s, "(?") {
			return s
		}
		return `([^/?]+)`
	})
	src = splatParam.ReplaceAllString(src, `([^?]*?)`)

	re, err := regexp.Compile(`^` + src + `(?:\?([\s\S]*))?$`)
	if err != nil {
		return nil, fmt.Errorf("router: compile %q: %w", pattern, err)
	}
	return &Matcher{pattern: pattern, re: re}, nil
}

// ExtractParameters returns the captured values of fragment against m.
// Path values are URL-decoded; the trailing query value is returned raw.
// Unmatched groups are nil.
func ExtractParameters(m *Matcher, fragment string) []any {
	loc := m.re.FindStringSubmatchIndex(fragment)
	if loc == nil {
		return nil
	}

	groups := len(loc)/2 - 1
	params := make([]any, 0, groups)
	for i := 1; i <= groups; i++ {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			params = append(params, nil)
			continue
		}
		raw := fragment[start:end]
		if i == groups {
			params = append(params, raw)
			continue
		}
		if raw == "" {
			params = append(params, nil)
			continue
		}
		if decoded, err := url.PathUnescape(raw); err == nil {
			raw = decoded
		}
		params = append(params, raw)
	}
	return params
}

// Route registers a callback for m. Later routes take precedence over
// earlier ones.
func (r *Router) Route(m *Matcher, name string, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes = append([]route{{matcher: m, name: name, callback: cb}}, r.routes...)
}

// Routes returns the registered route names, most recent first.
func (r *Router) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.routes))
	for i, rt := range r.routes {
		names[i] = rt.name
	}
	return names
}

// Start sets the initial fragment and loads it.
func (r *Router) Start(fragment string) bool {
	fragment = Normalize(fragment)
	r.history.Reset(fragment)
	return r.LoadURL(fragment)
}

// Navigate records fragment in history. Callbacks only fire with Trigger.
func (r *Router) Navigate(fragment string, opts NavigateOptions) {
	fragment = Normalize(fragment)
	if fragment == r.history.Current() {
		return
	}

	if opts.Replace {
		r.history.Replace(fragment)
	} else {
		r.history.Push(fragment)
	}

	if opts.Trigger {
		r.LoadURL(fragment)
	}
}

// Back moves one entry back in history and loads it, the same way a
// browser popstate would. It returns false when there is nothing to go back to.
func (r *Router) Back() bool {
	fragment, ok := r.history.Back()
	if !ok {
		return false
	}
	r.LoadURL(fragment)
	return true
}

// LoadURL fires the first route matching fragment. It reports whether a
// route matched.
func (r *Router) LoadURL(fragment string) bool {
	fragment = Normalize(fragment)

	r.mu.Lock()
	routes := make([]route, len(r.routes))
	copy(routes, r.routes)
	r.mu.Unlock()

	for _, rt := range routes {
		if rt.matcher.Match(fragment) {
			rt.callback(ExtractParameters(rt.matcher, fragment))
			return true
		}
	}
	return false
}

// Current returns the current fragment (path and query, no leading slash).
func (r *Router) Current() string {
	return r.history.Current()
}

// History exposes the router's history stack.
func (r *Router) History() *History {
	return r.history
}

// Normalize strips a leading "#" or "/" and any trailing whitespace so that
// "/section/1", "#section/1" and "section/1" are the same fragment.
func Normalize(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	fragment = strings.TrimLeft(fragment, "#/")
	return fragment
}
