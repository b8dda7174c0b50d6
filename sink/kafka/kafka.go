// Package kafka sends tracker reports to a Kafka topic.
//
// Reports are keyed by tracker name so that every report of one tracker
// lands on the same partition and stays ordered:
//
//	config := sarama.NewConfig()
//	config.Producer.Return.Successes = true
//	producer, _ := sarama.NewSyncProducer(brokers, config)
//	tracker := evtrack.New(evtrack.WithSinks(kafka.New(producer)))
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/IBM/sarama"
	"github.com/rbaliyan/evtrack"
	"github.com/rbaliyan/evtrack/payload"
)

// DefaultTopic is the topic reports are sent to.
const DefaultTopic = "evtrack-reports"

// Header keys set on every produced message
const (
	HeaderContentType = "content-type"
	HeaderReportID    = "evtrack-report-id"
)

// Sink errors
var (
	ErrNilProducer = errors.New("kafka producer is nil")
	ErrSinkClosed  = errors.New("kafka sink is closed")
)

const (
	sinkOpen   int32 = 0
	sinkClosed int32 = 1
)

// Sink sends reports to a Kafka topic
type Sink struct {
	status   int32
	producer sarama.SyncProducer
	topic    string
	codec    payload.Codec
	logger   *slog.Logger
	onError  func(error)
}

// Option configures the Kafka sink
type Option func(*Sink)

// WithTopic sets the topic reports are sent to
func WithTopic(topic string) Option {
	return func(s *Sink) {
		if topic != "" {
			s.topic = topic
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

// WithErrorHandler sets a callback invoked when a send fails
func WithErrorHandler(fn func(error)) Option {
	return func(s *Sink) {
		if fn != nil {
			s.onError = fn
		}
	}
}

// New creates a Kafka report sink around a SyncProducer.
// The sink takes ownership of the producer; Close closes it.
func New(producer sarama.SyncProducer, opts ...Option) *Sink {
	s := &Sink{
		producer: producer,
		topic:    DefaultTopic,
		codec:    payload.Default(),
		logger:   slog.Default(),
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "evtrack>sink>kafka")
	return s
}

// Topic returns the topic reports are sent to
func (s *Sink) Topic() string {
	return s.topic
}

// Emit encodes the report and sends it synchronously
func (s *Sink) Emit(ctx context.Context, report *evtrack.Report) error {
	if atomic.LoadInt32(&s.status) == sinkClosed {
		return ErrSinkClosed
	}
	if s.producer == nil {
		return ErrNilProducer
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.codec.Encode(report)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	partition, offset, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(report.Name),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderContentType), Value: []byte(s.codec.ContentType())},
			{Key: []byte(HeaderReportID), Value: []byte(report.ID)},
		},
		Timestamp: report.TakenAt,
	})
	if err != nil {
		s.onError(err)
		return fmt.Errorf("send: %w", err)
	}

	s.logger.Debug("sent report", "topic", s.topic, "report_id", report.ID, "partition", partition, "offset", offset)
	return nil
}

// Close closes the underlying producer
func (s *Sink) Close() error {
	if !atomic.CompareAndSwapInt32(&s.status, sinkOpen, sinkClosed) {
		return nil
	}
	if s.producer == nil {
		return nil
	}
	return s.producer.Close()
}

// Decode decodes a consumed message produced by Sink
func Decode(msg *sarama.ConsumerMessage) (*evtrack.Report, error) {
	contentType := ""
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == HeaderContentType {
			contentType = string(h.Value)
		}
	}
	codec := payload.MustGet(contentType)
	var r evtrack.Report
	if err := codec.Decode(msg.Value, &r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &r, nil
}

// Compile-time check that Sink implements evtrack.Sink.
var _ evtrack.Sink = (*Sink)(nil)
