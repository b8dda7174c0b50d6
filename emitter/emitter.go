// Package emitter provides an in-process event host for custom objects.
//
// Emitter implements evtrack.Host: handlers are attached to any trackable
// object (see evtrack.ObjectKey) and fired synchronously in registration
// order. It is the reference host used to exercise evtrack.Monitor.
//
// Example:
//
//	em := emitter.New()
//	em.AddEvent(chart, "redraw", func(ctx context.Context, e *emitter.Event) {
//	    fmt.Println("redraw", e.Args)
//	})
//	em.FireEvent(ctx, chart, "redraw", nil, func(args any) {
//	    // default action, skipped when a handler calls e.PreventDefault()
//	})
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/rbaliyan/evtrack"
)

// Event is passed to handlers when an event fires.
type Event struct {
	Target any
	Name   string
	Args   any

	prevented bool
}

// PreventDefault skips the default action of the event.
func (e *Event) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented returns true if a handler called PreventDefault.
func (e *Event) DefaultPrevented() bool {
	return e.prevented
}

// Handler handles a fired event.
type Handler func(ctx context.Context, e *Event)

type listener struct {
	key     string
	handler Handler
}

// options holds emitter configuration
type options struct {
	logger   *slog.Logger
	recovery bool
}

// Option configures an Emitter.
type Option func(*options)

// WithLogger sets the logger for rejected handlers and recovered panics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecovery enables/disables panic recovery in handlers. Default is true.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recovery = enabled
	}
}

// Emitter is a synchronous event host. Safe for concurrent use.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[any]map[string][]listener
	logger    *slog.Logger
	recovery  bool
}

var _ evtrack.Host = (*Emitter)(nil)

// New creates an emitter.
func New(opts ...Option) *Emitter {
	o := &options{
		logger:   slog.Default(),
		recovery: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Emitter{
		listeners: make(map[any]map[string][]listener),
		logger:    o.logger.With("component", "emitter"),
		recovery:  o.recovery,
	}
}

// asHandler converts the supported handler forms
func asHandler(h any) (Handler, bool) {
	switch fn := h.(type) {
	case Handler:
		return fn, fn != nil
	case func(context.Context, *Event):
		return fn, fn != nil
	case func(*Event):
		if fn == nil {
			return nil, false
		}
		return func(_ context.Context, e *Event) { fn(e) }, true
	case func():
		if fn == nil {
			return nil, false
		}
		return func(context.Context, *Event) { fn() }, true
	}
	return nil, false
}

// AddEvent attaches handler to name on target.
// Supported handler forms are Handler, func(context.Context, *Event),
// func(*Event) and func(). Other values are logged and ignored.
func (em *Emitter) AddEvent(target any, name string, handler any) {
	key, ok := evtrack.ObjectKey(target)
	if !ok {
		em.logger.Warn("cannot attach handler to object", "event", name, "type", fmt.Sprintf("%T", target))
		return
	}
	fn, ok := asHandler(handler)
	if !ok {
		em.logger.Warn("unsupported handler", "event", name, "type", fmt.Sprintf("%T", handler))
		return
	}

	em.mu.Lock()
	defer em.mu.Unlock()
	events, ok := em.listeners[key]
	if !ok {
		events = make(map[string][]listener)
		em.listeners[key] = events
	}
	events[name] = append(events[name], listener{
		key:     evtrack.HandlerIdentity(handler),
		handler: fn,
	})
}

// RemoveEvent detaches handlers from target.
//
//   - name and handler set: the most recently added matching handler
//   - only name set: all handlers of that event
//   - neither set: all handlers of target
func (em *Emitter) RemoveEvent(target any, name string, handler any) {
	key, ok := evtrack.ObjectKey(target)
	if !ok {
		return
	}

	em.mu.Lock()
	defer em.mu.Unlock()
	events, ok := em.listeners[key]
	if !ok {
		return
	}

	switch {
	case name == "":
		delete(em.listeners, key)
		return
	case evtrack.IsNilHandler(handler):
		delete(events, name)
	default:
		identity := evtrack.HandlerIdentity(handler)
		list := events[name]
		for i := len(list) - 1; i >= 0; i-- {
			if list[i].key == identity {
				list = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(events, name)
		} else {
			events[name] = list
		}
	}
	if len(events) == 0 {
		delete(em.listeners, key)
	}
}

// FireEvent runs the handlers of name on target in registration order,
// then defaultAction unless a handler prevented it.
func (em *Emitter) FireEvent(ctx context.Context, target any, name string, args any, defaultAction func(args any)) {
	ev := &Event{Target: target, Name: name, Args: args}

	var handlers []listener
	if key, ok := evtrack.ObjectKey(target); ok {
		em.mu.RLock()
		if events, ok := em.listeners[key]; ok {
			handlers = append(handlers, events[name]...)
		}
		em.mu.RUnlock()
	}

	for _, l := range handlers {
		em.call(ctx, l.handler, ev)
	}

	if defaultAction != nil && !ev.prevented {
		defaultAction(args)
	}
}

// call runs a handler, recovering panics if enabled
func (em *Emitter) call(ctx context.Context, h Handler, ev *Event) {
	if em.recovery {
		defer func() {
			if r := recover(); r != nil {
				em.logger.Error("handler panic recovered",
					"event", ev.Name,
					"error", r,
					"stack", string(debug.Stack()))
			}
		}()
	}
	h(ctx, ev)
}

// Listeners returns the number of handlers attached to name on target.
// An empty name counts all handlers of target.
func (em *Emitter) Listeners(target any, name string) int {
	key, ok := evtrack.ObjectKey(target)
	if !ok {
		return 0
	}
	em.mu.RLock()
	defer em.mu.RUnlock()

	events := em.listeners[key]
	if name != "" {
		return len(events[name])
	}
	n := 0
	for _, list := range events {
		n += len(list)
	}
	return n
}
