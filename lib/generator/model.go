package generator

import (
	"fmt"
	"go/token"
	"sort"
	"strings"
	"unicode"

	"github.com/pthm/hxnav"
	"github.com/pthm/hxnav/lib/urlpattern"
)

// StateFileInfo is everything the template needs for one state file.
type StateFileInfo struct {
	SourceFile string
	Package    string
	Name       string // manager name
	TypeName   string // exported prefix, e.g. "Sections"
	States     []StateInfo
	Handlers   []string // handler method names, first use first
	Events     []EventInfo
	// Receiver is the type declaring every handler method, when there is one.
	Receiver string
}

// StateInfo describes one generated state.
type StateInfo struct {
	ID         string
	Ident      string // e.g. "UsersDetail"
	Const      string // e.g. "StateUsersDetail"
	URL        string
	Params     []string // Go parameter names for the url placeholders
	Transition string
	Load       string
}

// EventInfo binds a lifecycle event to a method.
type EventInfo struct {
	Event  string
	Method string
}

// EventMethods returns the distinct event handler method names.
func (info *StateFileInfo) EventMethods() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ev := range info.Events {
		if !seen[ev.Method] {
			seen[ev.Method] = true
			out = append(out, ev.Method)
		}
	}
	return out
}

// buildInfo validates a parsed state file against the package's methods.
func buildInfo(source, pkgName string, sf *hxnav.StateFile, methods map[string][]MethodDecl) (*StateFileInfo, error) {
	if len(sf.States) == 0 {
		return nil, fmt.Errorf("no states declared")
	}

	name := sf.Name
	if name == "" {
		name = strings.TrimSuffix(source, StateFileSuffix)
	}
	info := &StateFileInfo{
		SourceFile: source,
		Package:    pkgName,
		Name:       name,
		TypeName:   exportedIdent(name),
	}

	seenIdent := make(map[string]string)
	seenHandler := make(map[string]bool)
	addHandler := func(method string) error {
		if !token.IsIdentifier(method) {
			return fmt.Errorf("handler name %q is not a Go identifier", method)
		}
		if !seenHandler[method] {
			seenHandler[method] = true
			info.Handlers = append(info.Handlers, method)
		}
		return nil
	}

	for _, e := range sf.States {
		if e.Transition == "" {
			return nil, fmt.Errorf("state %q: %w", e.ID, hxnav.ErrMissingTransition)
		}
		ident := exportedIdent(e.ID)
		if prev, dup := seenIdent[ident]; dup {
			return nil, fmt.Errorf("states %q and %q both map to %s", prev, e.ID, ident)
		}
		seenIdent[ident] = e.ID

		st := StateInfo{
			ID:         e.ID,
			Ident:      ident,
			Const:      "State" + ident,
			URL:        e.URL,
			Transition: e.Transition,
			Load:       e.Load,
		}
		if e.URL != "" {
			p, err := urlpattern.Compile(e.URL)
			if err != nil {
				return nil, fmt.Errorf("state %q: %w", e.ID, err)
			}
			st.Params = paramIdents(p.Names())
		}

		if err := addHandler(e.Transition); err != nil {
			return nil, err
		}
		if e.Load != "" {
			if err := addHandler(e.Load); err != nil {
				return nil, err
			}
		}
		info.States = append(info.States, st)
	}

	for _, event := range sf.EventNames() {
		method := sf.Events[event]
		if !token.IsIdentifier(method) {
			return nil, fmt.Errorf("event handler name %q is not a Go identifier", method)
		}
		if seenHandler[method] {
			return nil, fmt.Errorf("%q is used both as a state handler and an event handler", method)
		}
		info.Events = append(info.Events, EventInfo{Event: event, Method: method})
	}

	receiver, err := findReceiver(info, methods)
	if err != nil {
		return nil, err
	}
	info.Receiver = receiver
	return info, nil
}

// findReceiver checks the signatures of declared methods and returns the
// type declaring all of them, or "" when they are spread out or missing.
func findReceiver(info *StateFileInfo, methods map[string][]MethodDecl) (string, error) {
	want := make(map[string]HandlerSignature)
	for _, h := range info.Handlers {
		want[h] = SigHandler
	}
	for _, m := range info.EventMethods() {
		want[m] = SigEventHandler
	}

	receivers := make(map[string]int)
	missing := false
	for name, sig := range want {
		decls := methods[name]
		if len(decls) == 0 {
			missing = true
			continue
		}
		found := make(map[string]bool)
		for _, d := range decls {
			if d.Signature != sig {
				return "", fmt.Errorf("method %s.%s has the wrong signature, want %s", d.Receiver, name, sig)
			}
			found[d.Receiver] = true
		}
		for r := range found {
			receivers[r]++
		}
	}
	if missing {
		return "", nil
	}

	var complete []string
	for r, n := range receivers {
		if n == len(want) {
			complete = append(complete, r)
		}
	}
	if len(complete) == 0 {
		return "", nil
	}
	sort.Strings(complete)
	return complete[0], nil
}

// exportedIdent turns an id such as "users.detail" or "not-found" into
// "UsersDetail" or "NotFound". The wildcard "*" becomes "Wildcard".
func exportedIdent(id string) string {
	if id == hxnav.DefaultWildcardState {
		return "Wildcard"
	}
	var sb strings.Builder
	upper := true
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	if out == "" {
		return "State"
	}
	if unicode.IsDigit(rune(out[0])) {
		return "S" + out
	}
	return out
}

// paramIdents maps url placeholder names to Go parameter names.
func paramIdents(names []string) []string {
	out := make([]string, 0, len(names))
	used := map[string]bool{"ctx": true, "opts": true}
	for _, name := range names {
		id := exportedIdent(name)
		id = strings.ToLower(id[:1]) + id[1:]
		if token.IsKeyword(id) || used[id] {
			id += "Param"
		}
		used[id] = true
		out = append(out, id)
	}
	return out
}
