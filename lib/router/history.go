package router

import "sync"

// History is the navigation stack behind a Router.
type History struct {
	mu      sync.Mutex
	entries []string
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{entries: make([]string, 0)}
}

// Push adds a new entry.
func (h *History) Push(fragment string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, fragment)
}

// Replace overwrites the top entry, or pushes when empty.
func (h *History) Replace(fragment string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		h.entries = append(h.entries, fragment)
		return
	}
	h.entries[len(h.entries)-1] = fragment
}

// Back drops the top entry and returns the one below it.
func (h *History) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) < 2 {
		return "", false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return h.entries[len(h.entries)-1], true
}

// Current returns the top entry, or "" when empty.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Reset clears the stack and seeds it with fragment.
func (h *History) Reset(fragment string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:0], fragment)
}
