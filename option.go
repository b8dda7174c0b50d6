package evtrack

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

// DefaultTrackerName is used when a tracker is created without a name.
var DefaultTrackerName = "evtrack"

// options holds configuration for a tracker (unexported)
type options struct {
	name           string
	logger         *slog.Logger
	metricsEnabled bool
	meterProvider  metric.MeterProvider
	tracingEnabled bool
	warnLimit      rate.Limit
	warnBurst      int
	sinks          []Sink
}

// Option option function for tracker configuration
type Option func(*options)

// WithName sets the tracker name.
// The name is attached to log lines, metrics and reports.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the log sink for diagnostics and reports.
// Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables/disables OpenTelemetry metrics. Default is true.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithMeterProvider sets the provider for tracker instruments.
// Default is the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithTracing enables/disables OpenTelemetry spans around fired events.
// Only used by Monitor. Default is true.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithWarnRateLimit limits how many warning lines are written per second.
// Suppressed warnings are still counted by Warnings().
//
// Default is unlimited.
//
// Example:
//
//	tracker := evtrack.New(evtrack.WithWarnRateLimit(10, 20))
func WithWarnRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond <= 0 {
			return
		}
		o.warnLimit = rate.Limit(perSecond)
		o.warnBurst = burst
		if o.warnBurst < 1 {
			o.warnBurst = 1
		}
	}
}

// WithSinks adds sinks that receive the report on every Flush.
func WithSinks(sinks ...Sink) Option {
	return func(o *options) {
		for _, s := range sinks {
			if s != nil {
				o.sinks = append(o.sinks, s)
			}
		}
	}
}

// newOptions creates options with defaults and applies provided options
func newOptions(opts ...Option) *options {
	o := &options{
		name:           DefaultTrackerName,
		logger:         slog.Default(),
		metricsEnabled: true,
		tracingEnabled: true,
		warnLimit:      rate.Inf,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
