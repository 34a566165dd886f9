package hxnav

import (
	"context"
	"strings"
	"sync"
)

// Recorder is an Observer that keeps every lifecycle event for assertions.
//
//	rec := hxnav.NewRecorder()
//	reg := hxnav.NewRegistry(hxnav.WithObserver(rec))
//	...
//	if !rec.Has("transitionSuccess:section") {
//	    t.Fatal("transition did not complete")
//	}
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewTestRegistry returns a registry wired to a fresh Recorder.
func NewTestRegistry(opts ...Option) (*Registry, *Recorder) {
	rec := NewRecorder()
	return NewRegistry(append([]Option{WithObserver(rec)}, opts...)...), rec
}

func (r *Recorder) OnEvent(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, ev := range r.events {
		names[i] = ev.Name
	}
	return names
}

// NamesFor returns the event names emitted on m, in order.
func (r *Recorder) NamesFor(m *Manager) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, ev := range r.events {
		if ev.Manager == m {
			names = append(names, ev.Name)
		}
	}
	return names
}

// Has checks if an event with name was recorded.
func (r *Recorder) Has(name string) bool {
	_, ok := r.Find(name)
	return ok
}

// Find returns the first event named name.
func (r *Recorder) Find(name string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Name == name {
			return ev, true
		}
	}
	return Event{}, false
}

// IndexOf returns the position of the first event named name on m (any
// manager when m is nil), or -1.
func (r *Recorder) IndexOf(name string, m *Manager) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ev := range r.events {
		if ev.Name == name && (m == nil || ev.Manager == m) {
			return i
		}
	}
	return -1
}

// Errors returns the errors carried by loadError and transitionError events.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, ev := range r.events {
		if ev.Err != nil && !strings.Contains(ev.Name, ":") {
			errs = append(errs, ev.Err)
		}
	}
	return errs
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
