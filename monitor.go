package evtrack

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanKeyEventName = "event.name"
	spanKeyObjectID  = "event.object_id"
	spanKeyTracker   = "event.tracker"
)

// Host supplies the event primitives a Monitor wraps.
//
// RemoveEvent follows the same optionality as Tracker.Unregister: an empty
// name removes every handler of the target, a nil handler removes every
// handler of the event.
type Host interface {
	AddEvent(target any, name string, handler any)
	RemoveEvent(target any, name string, handler any)
	FireEvent(ctx context.Context, target any, name string, args any, defaultAction func(args any))
}

// HostFuncs adapts three plain functions to the Host interface.
// Nil functions are skipped.
type HostFuncs struct {
	Add    func(target any, name string, handler any)
	Remove func(target any, name string, handler any)
	Fire   func(ctx context.Context, target any, name string, args any, defaultAction func(args any))
}

// AddEvent calls f.Add
func (f HostFuncs) AddEvent(target any, name string, handler any) {
	if f.Add != nil {
		f.Add(target, name, handler)
	}
}

// RemoveEvent calls f.Remove
func (f HostFuncs) RemoveEvent(target any, name string, handler any) {
	if f.Remove != nil {
		f.Remove(target, name, handler)
	}
}

// FireEvent calls f.Fire
func (f HostFuncs) FireEvent(ctx context.Context, target any, name string, args any, defaultAction func(args any)) {
	if f.Fire != nil {
		f.Fire(ctx, target, name, args, defaultAction)
	}
}

// Monitor wraps a Host and tracks every add and remove with a Tracker.
// Calls are always passed through to the host unchanged, after bookkeeping.
//
// Example:
//
//	em := emitter.New()
//	mon := evtrack.NewMonitor(em, evtrack.WithName("series"))
//	mon.AddEvent(series, "afterAnimate", onAnimate)
//	mon.RemoveEvent(series, "", nil)
//	mon.Log(ctx) // logs nothing: no leaks
type Monitor struct {
	*Tracker
	host Host
}

var _ Host = (*Monitor)(nil)

// NewMonitor creates a monitor around host.
// Panics if host is nil (setup error).
func NewMonitor(host Host, opts ...Option) *Monitor {
	if host == nil {
		panic("evtrack: host is required for NewMonitor")
	}
	return &Monitor{
		Tracker: New(opts...),
		host:    host,
	}
}

// Host returns the wrapped host
func (m *Monitor) Host() Host {
	return m.host
}

// AddEvent registers the handler with the tracker, then adds it on the host.
func (m *Monitor) AddEvent(target any, name string, handler any) {
	m.Register(target, name, handler)
	m.host.AddEvent(target, name, handler)
}

// RemoveEvent unregisters the handler from the tracker, then removes it on the host.
func (m *Monitor) RemoveEvent(target any, name string, handler any) {
	m.Unregister(target, name, handler)
	m.host.RemoveEvent(target, name, handler)
}

// FireEvent passes through to the host without bookkeeping.
func (m *Monitor) FireEvent(ctx context.Context, target any, name string, args any, defaultAction func(args any)) {
	if m.tracing {
		attrs := []attribute.KeyValue{
			attribute.String(spanKeyEventName, name),
			attribute.String(spanKeyTracker, m.Name()),
		}
		if id, ok := m.Identity(target); ok {
			attrs = append(attrs, attribute.Int64(spanKeyObjectID, int64(id)))
		}
		var span trace.Span
		ctx, span = otel.Tracer(m.Name()).Start(ctx, fmt.Sprintf("%s.fire", name),
			trace.WithAttributes(attrs...),
			trace.WithSpanKind(trace.SpanKindInternal))
		defer span.End()
	}
	m.host.FireEvent(ctx, target, name, args, defaultAction)
}
