package hxnav

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Subscriber receives transition requests published on a Bus.
type Subscriber interface {
	Dispatch(ctx context.Context, req TransitionRequest) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, req TransitionRequest) error

func (f SubscriberFunc) Dispatch(ctx context.Context, req TransitionRequest) error {
	return f(ctx, req)
}

// Bus is the synchronous publish/subscribe channel shared by every manager
// of a registry. Requests are keyed by state id; the publisher does not need
// to know which manager owns the state.
//
// Normally exactly one manager subscribes under each state id, but nothing
// enforces that: every subscriber receives the request, in subscription order.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]Subscriber)}
}

// Subscribe registers sub under state.
func (b *Bus) Subscribe(state string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[state] = append(b.subs[state], sub)
}

// HasSubscribers reports whether anyone listens on state.
func (b *Bus) HasSubscribers(state string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[state]) > 0
}

// Publish delivers req to every subscriber of req.State in the caller's
// goroutine. It returns how many subscribers ran and their joined errors.
func (b *Bus) Publish(ctx context.Context, req TransitionRequest) (int, error) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[req.State]...)
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.Dispatch(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return len(subs), nil
	}
	if len(errs) == 1 {
		return len(subs), errs[0]
	}
	return len(subs), fmt.Errorf("hxnav: %d subscribers of %q failed: %w", len(errs), req.State, errors.Join(errs...))
}

// reset drops every subscription.
func (b *Bus) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]Subscriber)
}
