package evtrack

import "context"

// Sink receives registry reports on Flush and Close.
// Implementations must be safe for concurrent use.
//
// Available implementations:
//   - store.Sink: persists reports in a report store
//   - sink/nats: publishes reports to a NATS subject
//   - sink/kafka: sends reports to a Kafka topic
type Sink interface {
	Emit(ctx context.Context, report *Report) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, report *Report) error

// Emit calls f(ctx, report).
func (f SinkFunc) Emit(ctx context.Context, report *Report) error {
	return f(ctx, report)
}
