// Package hxnav provides state-based navigation on top of a host router.
//
// Applications declare named states, optionally backed by a URL template,
// and bind each one to a transition handler. hxnav keeps the host history in
// step with the active state and broadcasts lifecycle events as states are
// entered and left.
//
// # Core Concepts
//
// A Manager owns a table of states:
//
//	m, err := reg.NewManager(router, hxnav.Config{
//	    Name: "sections",
//	    States: []hxnav.State{
//	        {ID: "section", URL: "section/:id", Transition: v.showSection, Load: v.loadSection},
//	        {ID: "compose", Transition: v.showCompose},
//	    },
//	    Events: map[string]hxnav.EventHandler{
//	        hxnav.EventExit: v.teardown,
//	    },
//	})
//
// Every state is reachable two ways, through the same dispatch path:
//   - by URL, when the host router matches the state's pattern
//   - by name, through Go
//
// # Dispatching
//
// Go publishes a request on the registry bus; whichever manager owns the
// state handles it:
//
//	hxnav.Go(ctx, "section", hxnav.Positional("42"), hxnav.TransitionOptions{})
//
// Positional params are zipped against the URL placeholders. The last
// positional value is the raw query string; Go reserves that slot by
// appending nil, so the call above renders "section/42". Requests coming
// from the router or GoByURL carry the matched query in that slot:
// "section/42?x=1" reaches the handler as Args ["42", "x=1"] with
// Options.URL "section/42?x=1".
//
// GoByURL finds the owning state by matching a URL against every manager,
// newest manager first. Unmatched URLs go to the wildcard state "*".
//
// # Lifecycle
//
// One transition emits, in order:
//   - exit, on the previously active manager if it is a different one
//   - transitionStart and transitionStart:<state>
//   - navigate, when history was updated
//   - transitionSuccess and transitionSuccess:<state>, or
//     transitionError and transitionError:<state> carrying the error
//
// The first route match of the URL the page was loaded with runs the
// state's Load handler instead, emitting loadStart, loadSuccess and
// loadError in the same way.
//
// # Errors
//
// Setup mistakes (a state without a transition handler, a regular
// expression URL, params of the wrong shape for a URL state) are returned
// as *ConfigurationError. Handler failures, including panics, are never
// returned: they become loadError or transitionError events.
//
// # Links
//
// LinkAttrs and Manager.LinkAttrs render templ attributes for declarative
// links ("section([\"42\"])"), and Registry.GoAttr dispatches them. Links
// can also carry sealed requests via Registry.TokenAttrs and GoToken.
//
// WireAttrs and Registry.WireTokenAttrs post the same links to a server
// endpoint with htmx instead. The adapters/echo module serves that endpoint
// and reports the resulting events back to the browser.
//
// # Sessions
//
// A server dispatching for many browsers passes a Session in the context
// (WithSession). History and the active manager are then tracked per
// session instead of on the shared router and registry.
package hxnav
