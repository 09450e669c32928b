// internal/sink/sink.go
package sink

import (
	"fmt"

	"hostguard/internal/alerting"
)

// Sink is a durable append target for alert events. Record must append
// exactly one entry per call, in call order, and must not merge or reorder
// events. Callers may retry the same event after a failure (at-least-once).
type Sink interface {
	Record(event alerting.AlertEvent) error
	Close() error
}

// SinkError means a durable write failed. The caller may retry the event a
// bounded number of times before surfacing an operational error.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
