// Package nats publishes tracker reports to a NATS subject.
//
// Each report is encoded with a payload codec and published with a
// Content-Type header, so subscribers can pick the matching decoder:
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	tracker := evtrack.New(evtrack.WithSinks(natssink.New(nc)))
//
// Reports are published with NATS Core (at-most-once). Subscribers that
// are not connected when a report is flushed never see it.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/rbaliyan/evtrack"
	"github.com/rbaliyan/evtrack/payload"
)

// DefaultSubject is the subject reports are published to.
const DefaultSubject = "evtrack.reports"

// Header keys set on every published message
const (
	HeaderContentType = "Content-Type"
	HeaderReportID    = "Evtrack-Report-Id"
	HeaderTracker     = "Evtrack-Tracker"
)

// ErrNilConn is returned by Emit when the sink has no connection.
var ErrNilConn = errors.New("nats connection is nil")

// Conn is the subset of *nats.Conn used by the sink.
type Conn interface {
	PublishMsg(m *nats.Msg) error
}

// Sink publishes reports to a NATS subject
type Sink struct {
	conn    Conn
	subject string
	codec   payload.Codec
	logger  *slog.Logger
}

// Option configures the NATS sink
type Option func(*Sink)

// WithSubject sets the subject reports are published to
func WithSubject(subject string) Option {
	return func(s *Sink) {
		if subject != "" {
			s.subject = subject
		}
	}
}

// WithCodec sets the codec for report serialization
func WithCodec(c payload.Codec) Option {
	return func(s *Sink) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a NATS report sink
func New(conn Conn, opts ...Option) *Sink {
	s := &Sink{
		conn:    conn,
		subject: DefaultSubject,
		codec:   payload.Default(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "evtrack>sink>nats")
	return s
}

// Subject returns the subject reports are published to
func (s *Sink) Subject() string {
	return s.subject
}

// Emit encodes the report and publishes it
func (s *Sink) Emit(ctx context.Context, report *evtrack.Report) error {
	if s.conn == nil {
		return ErrNilConn
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.codec.Encode(report)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	msg := nats.NewMsg(s.subject)
	msg.Data = data
	msg.Header.Set(HeaderContentType, s.codec.ContentType())
	msg.Header.Set(HeaderReportID, report.ID)
	msg.Header.Set(HeaderTracker, report.Name)

	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	s.logger.Debug("published report", "subject", s.subject, "report_id", report.ID, "objects", len(report.Objects))
	return nil
}

// Decode decodes a message published by Sink using its Content-Type header
func Decode(msg *nats.Msg) (*evtrack.Report, error) {
	codec := payload.MustGet(msg.Header.Get(HeaderContentType))
	var r evtrack.Report
	if err := codec.Decode(msg.Data, &r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &r, nil
}

// Compile-time checks
var (
	_ evtrack.Sink = (*Sink)(nil)
	_ Conn         = (*nats.Conn)(nil)
)
