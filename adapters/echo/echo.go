// Package hxnavecho serves hxnav state links from an Echo application.
//
// Mount the dispatch handler on an Echo instance or group:
//
//	reg := hxnav.NewRegistry(hxnav.WithLinkKey(key))
//	reg.MustNewManager(hxnav.NewMemoryRouter(), views.SectionsConfig(h))
//
//	e := echo.New()
//	e.Use(hxnavecho.Onload(reg))
//	hxnavecho.Mount(e, reg)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	hxnavecho.MountGroup(g, reg)
//
// Links rendered with hxnav.WireAttrs post to "{path}go". Every lifecycle
// event emitted while serving the request is returned in the HX-Trigger
// header, and a navigation becomes HX-Push-Url (or HX-Replace-Url).
//
// Each request runs in its own hxnav.Session built from HX-Current-URL, so
// one browser's history never hides a navigation from another.
package hxnavecho

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/pthm/hxnav"
)

// Option configures Mount and MountGroup.
type Option func(*options)

type options struct {
	path         string
	errorMessage func(hxnav.Event) string
}

// WithPath sets the URL path prefix for the dispatch routes.
// Defaults to "/_nav/".
func WithPath(path string) Option {
	return func(o *options) {
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
		o.path = path
	}
}

// WithErrorMessage sets the toast text shown for loadError and
// transitionError events.
func WithErrorMessage(fn func(hxnav.Event) string) Option {
	return func(o *options) {
		o.errorMessage = fn
	}
}

func defaultErrorMessage(ev hxnav.Event) string {
	return "Could not open " + ev.State
}

// Handler serves dispatch requests for one registry.
type Handler struct {
	reg  *hxnav.Registry
	opts options
}

// Mount registers the dispatch routes on an Echo instance. A nil registry
// means hxnav.Default().
//
//	e := echo.New()
//	hxnavecho.Mount(e, reg)
//
//	// With options:
//	hxnavecho.Mount(e, reg, hxnavecho.WithPath("/nav/"))
func Mount(e *echo.Echo, reg *hxnav.Registry, opts ...Option) *Handler {
	h := newHandler(reg, opts)
	e.POST(h.opts.path+"go", h.Go)
	e.GET(h.opts.path+"url", h.URL)
	return h
}

// MountGroup registers the dispatch routes on an Echo group, so they share
// the group's middleware (auth, logging, etc.).
//
//	g := e.Group("/app", authMiddleware)
//	hxnavecho.MountGroup(g, reg)
func MountGroup(g *echo.Group, reg *hxnav.Registry, opts ...Option) *Handler {
	h := newHandler(reg, opts)
	g.POST(h.opts.path+"go", h.Go)
	g.GET(h.opts.path+"url", h.URL)
	return h
}

func newHandler(reg *hxnav.Registry, opts []Option) *Handler {
	o := options{path: "/_nav/", errorMessage: defaultErrorMessage}
	for _, opt := range opts {
		opt(&o)
	}
	if reg == nil {
		reg = hxnav.Default()
	}

	h := &Handler{reg: reg, opts: o}
	reg.Observe(hxnav.ObserverFunc(h.collect))
	return h
}

// Registry returns the registry the handler dispatches to.
func (h *Handler) Registry() *hxnav.Registry {
	return h.reg
}

// Go dispatches a wired link. The form carries either a sealed token or the
// state attribute, href and options written by hxnav.WireAttrs.
//
// Only htmx requests are accepted, which keeps cross-site form posts out.
func (h *Handler) Go(c echo.Context) error {
	if !IsHTMX(c) {
		return echo.NewHTTPError(http.StatusForbidden, "hxnav: dispatch requires an htmx request")
	}

	col := &collector{owner: h}
	ctx := h.requestContext(c, col)

	var err error
	if token := c.FormValue(hxnav.FieldToken); token != "" {
		var req hxnav.TransitionRequest
		req, err = h.reg.Encoder().Open(token)
		if err == nil {
			col.replace = req.Options.Replace
			err = h.reg.Go(ctx, req.State, req.Params, req.Options)
		}
	} else {
		var opts hxnav.TransitionOptions
		opts, err = hxnav.ParseOptions(c.FormValue(hxnav.FieldOptions))
		if err == nil {
			col.replace = opts.Replace
			err = h.reg.GoAttr(ctx, c.FormValue(hxnav.FieldState), c.FormValue(hxnav.FieldHref), c.FormValue(hxnav.FieldOptions))
		}
	}
	if err != nil {
		return requestError(err)
	}
	return h.respond(c, col)
}

// URL dispatches ?u= the way the host router would on a history change.
func (h *Handler) URL(c echo.Context) error {
	u := c.QueryParam("u")
	if u == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "hxnav: missing u parameter")
	}

	col := &collector{owner: h}
	ctx := h.requestContext(c, col)
	if err := h.reg.GoByURL(ctx, u, hxnav.TransitionOptions{}); err != nil {
		return requestError(err)
	}
	return h.respond(c, col)
}

// requestContext scopes a dispatch to the requesting browser: events are
// collected for its response, and history and the active manager come from
// the page it reports in HX-Current-URL rather than from other clients.
func (h *Handler) requestContext(c echo.Context, col *collector) context.Context {
	current := CurrentURL(c)
	session := hxnav.NewSession(current, h.reg.ManagerFor(current))

	ctx := context.WithValue(c.Request().Context(), collectorKey{}, col)
	return hxnav.WithSession(ctx, session)
}

// requestError maps mistakes in the request onto 400 and leaves anything
// else to Echo's error handler.
func requestError(err error) error {
	if hxnav.IsConfigurationError(err) || hxnav.IsTokenError(err) || errors.Is(err, hxnav.ErrInvalidAttr) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}

func (h *Handler) respond(c echo.Context, col *collector) error {
	events := col.snapshot()
	header := c.Response().Header()

	if trigger := TriggerJSON(events); trigger != "" {
		header.Set("HX-Trigger", trigger)
	}

	var flashes []Flash
	for _, ev := range events {
		switch {
		case ev.Name == hxnav.EventNavigate && ev.URL != "":
			if col.replace {
				header.Set("HX-Replace-Url", "/"+ev.URL)
			} else {
				header.Set("HX-Push-Url", "/"+ev.URL)
			}
		case ev.Name == hxnav.EventTransitionError || ev.Name == hxnav.EventLoadError:
			flashes = append(flashes, flashFor(ev, h.opts.errorMessage(ev)))
		}
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	for _, view := range col.components() {
		if err := view.Render(c.Request().Context(), c.Response()); err != nil {
			return err
		}
	}
	_, err := io.WriteString(c.Response(), RenderFlashesOOB(flashes))
	return err
}

// collectorKey carries the per-request collector through dispatch.
type collectorKey struct{}

type collector struct {
	owner   *Handler
	replace bool

	mu     sync.Mutex
	events []hxnav.Event
	views  []templ.Component
}

// Respond adds component to the body of the dispatch request running on
// ctx, so a transition handler can render the content it switched to. It
// reports false when ctx does not belong to a dispatch request.
func Respond(ctx context.Context, component templ.Component) bool {
	col, ok := ctx.Value(collectorKey{}).(*collector)
	if !ok {
		return false
	}
	col.mu.Lock()
	col.views = append(col.views, component)
	col.mu.Unlock()
	return true
}

func (c *collector) components() []templ.Component {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]templ.Component(nil), c.views...)
}

func (c *collector) snapshot() []hxnav.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]hxnav.Event(nil), c.events...)
}

// collect is the registry observer. Events of dispatches that did not come
// through this handler are ignored.
func (h *Handler) collect(ctx context.Context, ev hxnav.Event) {
	col, ok := ctx.Value(collectorKey{}).(*collector)
	if !ok || col.owner != h {
		return
	}
	col.mu.Lock()
	col.events = append(col.events, ev)
	col.mu.Unlock()
}

// TriggerJSON builds the HX-Trigger value for events: one key per event
// name with the state, transition id and url or error as detail. Returns ""
// when there are no events.
func TriggerJSON(events []hxnav.Event) string {
	if len(events) == 0 {
		return ""
	}

	payload := make(map[string]map[string]string, len(events))
	for _, ev := range events {
		detail := map[string]string{
			"state":        ev.State,
			"transitionId": ev.TransitionID,
		}
		if ev.URL != "" {
			detail["url"] = ev.URL
		}
		if ev.Err != nil {
			detail["error"] = ev.Err.Error()
		}
		payload["hxnav:"+ev.Name] = detail
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}

// Onload records the URL of every full page load (a GET that is not an htmx
// request) as the registry's on-load URL, so the first route callback runs
// the state's load handler instead of a transition.
func Onload(reg *hxnav.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := reg
			if r == nil {
				r = hxnav.Default()
			}
			if c.Request().Method == http.MethodGet && !IsHTMX(c) {
				r.SetOnloadURL(c.Request().URL.RequestURI())
			}
			return next(c)
		}
	}
}

// IsHTMX reports whether the request was sent by htmx.
func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// CurrentURL returns the path and query of the browser URL htmx reports for
// the request, or "".
func CurrentURL(c echo.Context) string {
	raw := c.Request().Header.Get("HX-Current-URL")
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.RequestURI()
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return hxnavecho.Render(c, myTemplate())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
