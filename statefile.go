package hxnav

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Methods maps handler names used in state files to bound handlers. Names
// are resolved once, when the file is bound, so a typo fails at startup.
type Methods map[string]HandlerFunc

// EventMethods maps event handler names used in state files to handlers.
type EventMethods map[string]EventHandler

// StateFile is the TOML form of a manager's state and event tables:
//
//	name = "sections"
//
//	[[state]]
//	id = "section"
//	url = "section/:id"
//	transition = "showSection"
//	load = "loadSection"
//
//	[events]
//	exit = "teardown"
type StateFile struct {
	Name   string            `toml:"name"`
	States []StateEntry      `toml:"state"`
	Events map[string]string `toml:"events"`
}

// StateEntry is one [[state]] table.
type StateEntry struct {
	ID         string `toml:"id"`
	URL        string `toml:"url"`
	Transition string `toml:"transition"`
	Load       string `toml:"load"`
}

// ParseStateFile decodes a state file. Unknown keys are rejected.
func ParseStateFile(r io.Reader) (*StateFile, error) {
	var f StateFile
	meta, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("hxnav: parse state file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, configError("", fmt.Errorf("unknown keys in state file: %s", strings.Join(keys, ", ")))
	}
	return &f, nil
}

// ReadStateFile parses the state file at path.
func ReadStateFile(path string) (*StateFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return ParseStateFile(fh)
}

// Bind resolves every handler name and returns a manager Config.
func (f *StateFile) Bind(methods Methods, events EventMethods) (Config, error) {
	cfg := Config{
		Name:   f.Name,
		States: make([]State, 0, len(f.States)),
	}

	for _, e := range f.States {
		st := State{ID: e.ID, URL: e.URL}
		if e.Transition != "" {
			h, ok := methods[e.Transition]
			if !ok {
				return Config{}, configError(e.ID, fmt.Errorf("%w %q", ErrUnknownMethod, e.Transition))
			}
			st.Transition = h
		}
		if e.Load != "" {
			h, ok := methods[e.Load]
			if !ok {
				return Config{}, configError(e.ID, fmt.Errorf("%w %q", ErrUnknownMethod, e.Load))
			}
			st.Load = h
		}
		cfg.States = append(cfg.States, st)
	}

	if len(f.Events) > 0 {
		cfg.Events = make(map[string]EventHandler, len(f.Events))
		for _, event := range f.EventNames() {
			name := f.Events[event]
			h, ok := events[name]
			if !ok {
				return Config{}, configError("", fmt.Errorf("%w %q for event %q", ErrUnknownMethod, name, event))
			}
			cfg.Events[event] = h
		}
	}
	return cfg, nil
}

// EventNames returns the bound event names in sorted order.
func (f *StateFile) EventNames() []string {
	names := make([]string, 0, len(f.Events))
	for name := range f.Events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadStateFile reads and binds the state file at path.
func LoadStateFile(path string, methods Methods, events EventMethods) (Config, error) {
	f, err := ReadStateFile(path)
	if err != nil {
		return Config{}, err
	}
	return f.Bind(methods, events)
}
