package hxnav

import (
	"context"

	"github.com/pthm/hxnav/lib/urlpattern"
)

// HandlerFunc is a bound transition or load handler.
type HandlerFunc func(ctx context.Context, call Call) error

// State declares one navigable application state.
//
//	hxnav.State{
//	    ID:         "section",
//	    URL:        "section/:id",
//	    Transition: c.showSection,
//	    Load:       c.loadSection,
//	}
//
// URL is optional. States without a URL are reachable only through Go.
type State struct {
	ID         string
	URL        string
	Transition HandlerFunc
	Load       HandlerFunc
}

// CallOptions is the trailing options object passed to handlers of
// URL-backed states.
type CallOptions struct {
	URL string
}

// Call carries the computed arguments of a handler invocation.
//
// For a state with URL "section/:id" dispatched with Positional("42", "x=1"),
// Args is ["42", "x=1"] and Options.URL is "section/42?x=1".
type Call struct {
	State   string
	Manager *Manager
	Args    []any
	Options *CallOptions
}

// Arguments returns Args followed by the options object, if any.
func (c Call) Arguments() []any {
	out := make([]any, 0, len(c.Args)+1)
	out = append(out, c.Args...)
	if c.Options != nil {
		out = append(out, *c.Options)
	}
	return out
}

// Arg returns the i-th argument as a string, or "" when it is absent or nil.
func (c Call) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return urlpattern.Stringify(c.Args[i])
}

// URL returns the computed URL, or "" for states without one.
func (c Call) URL() string {
	if c.Options == nil {
		return ""
	}
	return c.Options.URL
}

// compiledState is a State plus the fields derived once at registration.
type compiledState struct {
	State
	pattern *urlpattern.Pattern
	matcher Matcher
}

func (s *compiledState) hasURL() bool {
	return s.pattern != nil
}

// compileState validates a declaration. It never touches the router.
func compileState(st State) (*compiledState, error) {
	if st.Transition == nil {
		return nil, configError(st.ID, ErrMissingTransition)
	}

	cs := &compiledState{State: st}
	if st.URL == "" {
		return cs, nil
	}

	p, err := urlpattern.Compile(st.URL)
	if err != nil {
		return nil, configError(st.ID, ErrRegexpURL)
	}
	cs.pattern = p
	return cs, nil
}

// TransitionOptions control a single transition.
type TransitionOptions struct {
	// Navigate updates the host history. nil means true.
	Navigate *bool `json:"navigate,omitempty"`
	// Replace replaces the current history entry instead of pushing one.
	Replace bool `json:"replace,omitempty"`
}

// NoNavigate returns options that leave history untouched.
func NoNavigate() TransitionOptions {
	f := false
	return TransitionOptions{Navigate: &f}
}

func (o TransitionOptions) navigates() bool {
	return o.Navigate == nil || *o.Navigate
}

// TransitionRequest is one "go to state" message on the bus.
type TransitionRequest struct {
	State   string
	Params  Params
	Options TransitionOptions
}
