package evtrack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	trackerRunning = 1
	trackerStopped = 0
)

// ReportHeader is the first line written by Log when anything is registered.
const ReportHeader = "----- registered events -----"

// registration counts the handlers registered under one handler key
type registration struct {
	event string
	count int
}

// entry is the registry record for one tracked object
type entry struct {
	key      any
	typ      string
	handlers map[string]*registration
}

func (e *entry) total() int {
	n := 0
	for _, r := range e.handlers {
		n += r.count
	}
	return n
}

// Tracker counts handler registrations per object to find leaks.
//
// A Tracker never fails and never panics on caller input: misuse is
// reported as a warning on the configured logger and bookkeeping continues
// on a best effort basis. Tracker is safe for concurrent use.
type Tracker struct {
	status   int32
	name     string
	logger   *slog.Logger
	limiter  *rate.Limiter
	metrics  *metrics
	tracing  bool
	sinks    []Sink
	warnings atomic.Int64

	mu       sync.Mutex
	ids      *identities
	registry map[ObjectID]*entry
}

// New creates a tracker.
//
// Example:
//
//	tracker := evtrack.New(evtrack.WithName("chart-tests"), evtrack.WithLogger(logger))
//	tracker.Register(button, "click", onClick)
//	defer tracker.Log(ctx)
func New(opts ...Option) *Tracker {
	o := newOptions(opts...)
	t := &Tracker{
		status:   trackerRunning,
		name:     o.name,
		logger:   o.logger.With("component", "evtrack>"+o.name),
		tracing:  o.tracingEnabled,
		sinks:    o.sinks,
		ids:      newIdentities(),
		registry: make(map[ObjectID]*entry),
	}
	if o.warnLimit != rate.Inf {
		t.limiter = rate.NewLimiter(o.warnLimit, o.warnBurst)
	}
	if o.metricsEnabled {
		t.metrics = newMetrics(o.name, o.meterProvider)
	}
	return t
}

// Name returns the tracker name
func (t *Tracker) Name() string {
	return t.name
}

// Logger returns the tracker logger
func (t *Tracker) Logger() *slog.Logger {
	return t.logger
}

// Running returns true until Close is called
func (t *Tracker) Running() bool {
	return atomic.LoadInt32(&t.status) == trackerRunning
}

// Warnings returns the number of warnings raised since creation,
// including those suppressed by the rate limit.
func (t *Tracker) Warnings() int64 {
	return t.warnings.Load()
}

// warn writes a diagnostic line
func (t *Tracker) warn(msg string, args ...any) {
	t.warnings.Add(1)
	t.metrics.recordWarning(context.Background())
	if t.limiter != nil && !t.limiter.Allow() {
		return
	}
	t.logger.Warn(msg, args...)
}

// Register records that handler was added for eventName on target.
//
// Structural and pointer events on a target that is not an Element are
// reported but still counted. Targets that cannot be identified (nil or
// non-comparable values) are reported and skipped.
func (t *Tracker) Register(target any, eventName string, handler any) {
	if !t.Running() {
		t.warn("register on closed tracker", "event", eventName)
		return
	}

	key, ok := ObjectKey(target)
	if !ok {
		t.warn("cannot track object", "event", eventName, "type", fmt.Sprintf("%T", target))
		return
	}

	if category := Classify(eventName); category.IsDOM() && !IsElement(target) {
		t.warn("structural and pointer events are only allowed on elements",
			"event", eventName,
			"category", category.String(),
			"type", fmt.Sprintf("%T", target))
	}
	handlerKey := HandlerKey(eventName, handler)

	t.mu.Lock()
	id := t.ids.assign(key)
	e, ok := t.registry[id]
	if !ok {
		e = &entry{
			key:      key,
			typ:      typeName(target),
			handlers: make(map[string]*registration),
		}
		t.registry[id] = e
	}
	r, ok := e.handlers[handlerKey]
	if !ok {
		r = &registration{event: eventName}
		e.handlers[handlerKey] = r
	}
	r.count++
	t.mu.Unlock()

	t.metrics.recordRegistered(context.Background(), eventName)
}

// Unregister records that handlers were removed from target.
//
//   - eventName and handler set: one registration of that handler is removed
//   - only eventName set: all handlers of that event are removed
//   - neither set: everything tracked for target is removed
//
// A nil handler (nil interface, func, pointer, map or channel) counts as
// not set. Any other handler removes only its own key, even when its
// identity is empty.
// When the last handler of a target is removed its identity is released.
// Unregistering a target that was never registered only logs a warning.
func (t *Tracker) Unregister(target any, eventName string, handler any) {
	if !t.Running() {
		t.warn("unregister on closed tracker", "event", eventName)
		return
	}

	key, ok := ObjectKey(target)

	t.mu.Lock()
	var id ObjectID
	found := false
	if ok {
		id, found = t.ids.lookup(key)
	}
	e := t.registry[id]
	if !found || e == nil {
		t.mu.Unlock()
		t.warn("trying to unregister an event on an object that is not registered yet",
			"event", eventName,
			"type", fmt.Sprintf("%T", target))
		return
	}

	removed := 0
	missing := false
	switch {
	case eventName == "":
		removed = e.total()
		t.drop(id, e)
	case IsNilHandler(handler):
		for k, r := range e.handlers {
			if r.event == eventName {
				removed += r.count
				delete(e.handlers, k)
			}
		}
	default:
		handlerKey := HandlerKey(eventName, handler)
		if r, ok := e.handlers[handlerKey]; ok {
			r.count--
			removed = 1
			if r.count <= 0 {
				delete(e.handlers, handlerKey)
			}
		} else {
			missing = true
		}
	}
	if eventName != "" && len(e.handlers) == 0 {
		t.drop(id, e)
	}
	t.mu.Unlock()

	if missing {
		t.warn("trying to unregister a handler that is not registered",
			"event", eventName,
			"object", id)
	}
	t.metrics.recordUnregistered(context.Background(), eventName, removed)
}

// drop erases an entry and releases its identity. Caller holds t.mu.
func (t *Tracker) drop(id ObjectID, e *entry) {
	delete(t.registry, id)
	t.ids.release(e.key)
}

// Identity returns the id currently assigned to target.
func (t *Tracker) Identity(target any) (ObjectID, bool) {
	key, ok := ObjectKey(target)
	if !ok {
		return 0, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ids.lookup(key)
}

// Count returns the number of registrations of handler for eventName on target.
func (t *Tracker) Count(target any, eventName string, handler any) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.lookupLocked(target)
	if e == nil {
		return 0
	}
	if r, ok := e.handlers[HandlerKey(eventName, handler)]; ok {
		return r.count
	}
	return 0
}

// Handlers returns the number of handlers registered for eventName on target.
// An empty eventName counts handlers of all events.
func (t *Tracker) Handlers(target any, eventName string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.lookupLocked(target)
	if e == nil {
		return 0
	}
	n := 0
	for _, r := range e.handlers {
		if eventName == "" || r.event == eventName {
			n += r.count
		}
	}
	return n
}

// lookupLocked returns the entry of target. Caller holds t.mu.
func (t *Tracker) lookupLocked(target any) *entry {
	key, ok := ObjectKey(target)
	if !ok {
		return nil
	}
	id, ok := t.ids.lookup(key)
	if !ok {
		return nil
	}
	return t.registry[id]
}

// Len returns the number of tracked objects
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.registry)
}

// Empty returns true if nothing is registered
func (t *Tracker) Empty() bool {
	return t.Len() == 0
}

// Reset clears the registry and rewinds the identity counter.
// Use it between independent observation periods, e.g. between test cases.
func (t *Tracker) Reset() {
	t.mu.Lock()
	cleared := 0
	for _, e := range t.registry {
		cleared += e.total()
	}
	t.registry = make(map[ObjectID]*entry)
	t.ids.reset()
	t.mu.Unlock()

	t.metrics.recordCleared(context.Background(), cleared)
}

// Report returns a snapshot of the registry.
func (t *Tracker) Report() *Report {
	r := &Report{
		ID:      NewID(),
		Name:    t.name,
		TakenAt: time.Now(),
		Objects: []ObjectReport{},
	}

	t.mu.Lock()
	for id, e := range t.registry {
		counts := make(map[string]int)
		for _, reg := range e.handlers {
			counts[reg.event] += reg.count
		}
		if len(counts) == 0 {
			continue
		}
		obj := ObjectReport{ID: id, Type: e.typ, Events: make([]EventCount, 0, len(counts))}
		for name, n := range counts {
			obj.Events = append(obj.Events, EventCount{Name: name, Handlers: n})
		}
		sort.Slice(obj.Events, func(i, j int) bool {
			return obj.Events[i].Name < obj.Events[j].Name
		})
		r.Objects = append(r.Objects, obj)
	}
	t.mu.Unlock()

	sort.Slice(r.Objects, func(i, j int) bool {
		return r.Objects[i].ID < r.Objects[j].ID
	})
	return r
}

// Log writes the currently registered events to the logger.
// Nothing is written when the registry is empty.
func (t *Tracker) Log(ctx context.Context) {
	t.LogReport(ctx, t.Report())
}

// LogReport writes a report taken earlier in the format of Log.
func (t *Tracker) LogReport(ctx context.Context, r *Report) {
	if r == nil || r.Empty() {
		return
	}
	t.logger.InfoContext(ctx, "")
	t.logger.InfoContext(ctx, ReportHeader, "report", r.ID)
	for _, obj := range r.Objects {
		t.logger.InfoContext(ctx, "object: "+obj.ID.String(), "object", obj.ID, "type", obj.Type)
		for _, ev := range obj.Events {
			t.logger.InfoContext(ctx,
				fmt.Sprintf("  %s has %d number of handlers registered", ev.Name, ev.Handlers),
				"object", obj.ID,
				"event", ev.Name,
				"handlers", ev.Handlers)
		}
	}
}

// Flush logs the current report and emits it to every configured sink.
// Sink failures are joined into the returned error and never change the
// registry.
func (t *Tracker) Flush(ctx context.Context) (*Report, error) {
	if !t.Running() {
		return nil, ErrTrackerClosed
	}
	r := t.Report()
	t.LogReport(ctx, r)
	return r, t.emit(ctx, r)
}

func (t *Tracker) emit(ctx context.Context, r *Report) error {
	var errs []error
	for i, s := range t.sinks {
		if err := s.Emit(ctx, r); err != nil {
			t.logger.Warn("report sink failed", "sink", i, "error", err)
			errs = append(errs, &SinkError{Index: i, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Close disposes the tracker. Anything still registered is logged and
// emitted to the sinks as a final report before the registry is cleared.
// Register and Unregister only warn after Close.
func (t *Tracker) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&t.status, trackerRunning, trackerStopped) {
		return nil
	}
	r := t.Report()
	var err error
	if !r.Empty() {
		t.LogReport(ctx, r)
		err = t.emit(ctx, r)
	}
	t.Reset()
	return err
}
