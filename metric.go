package evtrack

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the tracker instruments. A nil *metrics records nothing.
type metrics struct {
	registered   metric.Int64Counter
	unregistered metric.Int64Counter
	warnings     metric.Int64Counter
	active       metric.Int64UpDownCounter
	trackerAttr  attribute.KeyValue
}

// newMetrics creates instruments on mp, or on the global meter provider
// when mp is nil. Instrument creation errors leave the corresponding
// instrument nil.
func newMetrics(name string, mp metric.MeterProvider) *metrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(name)
	m := &metrics{trackerAttr: attribute.String("tracker", name)}
	m.registered, _ = meter.Int64Counter("evtrack.registered",
		metric.WithDescription("Total number of handler registrations"))
	m.unregistered, _ = meter.Int64Counter("evtrack.unregistered",
		metric.WithDescription("Total number of handler registrations removed"))
	m.warnings, _ = meter.Int64Counter("evtrack.warnings",
		metric.WithDescription("Total number of diagnostic warnings"))
	m.active, _ = meter.Int64UpDownCounter("evtrack.handlers.active",
		metric.WithDescription("Handler registrations currently tracked"))
	return m
}

func (m *metrics) recordRegistered(ctx context.Context, eventName string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(m.trackerAttr, attribute.String("event", eventName))
	if m.registered != nil {
		m.registered.Add(ctx, 1, attrs)
	}
	if m.active != nil {
		m.active.Add(ctx, 1, metric.WithAttributes(m.trackerAttr))
	}
}

func (m *metrics) recordUnregistered(ctx context.Context, eventName string, n int) {
	if m == nil || n <= 0 {
		return
	}
	if m.unregistered != nil {
		m.unregistered.Add(ctx, int64(n),
			metric.WithAttributes(m.trackerAttr, attribute.String("event", eventName)))
	}
	if m.active != nil {
		m.active.Add(ctx, -int64(n), metric.WithAttributes(m.trackerAttr))
	}
}

func (m *metrics) recordCleared(ctx context.Context, n int) {
	if m == nil || n <= 0 || m.active == nil {
		return
	}
	m.active.Add(ctx, -int64(n), metric.WithAttributes(m.trackerAttr))
}

func (m *metrics) recordWarning(ctx context.Context) {
	if m == nil || m.warnings == nil {
		return
	}
	m.warnings.Add(ctx, 1, metric.WithAttributes(m.trackerAttr))
}
