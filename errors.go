package evtrack

import (
	"errors"
	"fmt"
)

// ErrTrackerClosed is returned by operations that report on a closed tracker.
// Register and Unregister never return errors; on a closed tracker they log
// a warning instead.
var ErrTrackerClosed = errors.New("tracker is closed")

// SinkError wraps a failure of one sink during Flush.
type SinkError struct {
	Index int
	Err   error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %d: %v", e.Index, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// IsSinkError checks if an error was returned by a report sink.
func IsSinkError(err error) bool {
	var sinkErr *SinkError
	return errors.As(err, &sinkErr)
}
