package hxnav

import (
	"context"
	"log/slog"
	"time"
)

// Lifecycle event names. Each is emitted globally and again suffixed with
// ":<state id>" (except exit and navigate).
const (
	EventLoadStart         = "loadStart"
	EventLoadSuccess       = "loadSuccess"
	EventLoadError         = "loadError"
	EventTransitionStart   = "transitionStart"
	EventTransitionSuccess = "transitionSuccess"
	EventTransitionError   = "transitionError"
	EventExit              = "exit"
	EventNavigate          = "navigate"
)

// Scoped returns the per-state form of a lifecycle event, e.g.
// "transitionStart:section".
func Scoped(event, state string) string {
	return event + ":" + state
}

// Event is delivered to event handlers and observers.
type Event struct {
	// Name is the full event name, including any ":<state>" suffix.
	Name string
	// State is the state being loaded or transitioned to. Empty for exit.
	State string
	// Manager is the manager the event was emitted on.
	Manager *Manager
	// TransitionID groups the events of one dispatch.
	TransitionID string
	// Args are the handler arguments (load events) or nil.
	Args []any
	// URL is set on navigate events.
	URL string
	// Err is set on loadError and transitionError events.
	Err error
	// Timestamp is when the event was emitted.
	Timestamp time.Time
}

// EventHandler reacts to lifecycle events emitted on a manager.
type EventHandler func(ctx context.Context, ev Event)

// Observer receives every lifecycle event emitted by any manager of a
// registry, for logging, tracing or test recording.
type Observer interface {
	OnEvent(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) OnEvent(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// SlogObserver logs lifecycle events. Error events are logged at error
// level, start events at debug, everything else at info.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that writes to logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, ev Event) {
	attrs := make([]slog.Attr, 0, 5)
	if ev.State != "" {
		attrs = append(attrs, slog.String("state", ev.State))
	}
	if ev.Manager != nil {
		attrs = append(attrs, slog.String("manager", ev.Manager.Name()))
	}
	if ev.TransitionID != "" {
		attrs = append(attrs, slog.String("transition_id", ev.TransitionID))
	}
	if ev.URL != "" {
		attrs = append(attrs, slog.String("url", ev.URL))
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.Any("error", ev.Err))
	}

	o.logger.LogAttrs(ctx, eventLevel(ev), ev.Name, attrs...)
}

func eventLevel(ev Event) slog.Level {
	switch {
	case ev.Err != nil:
		return slog.LevelError
	case isStartEvent(ev.Name):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func isStartEvent(name string) bool {
	return hasEventPrefix(name, EventLoadStart) || hasEventPrefix(name, EventTransitionStart)
}

func hasEventPrefix(name, event string) bool {
	if name == event {
		return true
	}
	return len(name) > len(event) && name[:len(event)] == event && name[len(event)] == ':'
}

// multiObserver fans out events to several observers.
type multiObserver []Observer

func (m multiObserver) OnEvent(ctx context.Context, ev Event) {
	for _, obs := range m {
		obs.OnEvent(ctx, ev)
	}
}
