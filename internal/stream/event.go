package stream

import (
	"encoding/json"
	"fmt"
)

// Event is one decoded event/data pair from the run stream.
type Event struct {
	Index    int             // ordinal within this run's stream, starting at 1
	Name     string          // value of the event: line (messages/partial, tool_response, ...)
	Data     json.RawMessage // data: payload, already validated as JSON
	RawBytes int             // bytes of the lines that made up this pair, terminators included
}

// Reasons a pending pair is given up on.
const (
	ReasonSuperseded   = "superseded by a new event line"
	ReasonReplaced     = "replaced by a complete data line"
	ReasonTooManyLines = "data did not become valid JSON within the line limit"
	ReasonEndOfStream  = "stream ended with incomplete data"
	ReasonCancelled    = "stream stopped with incomplete data"
)

// DecodeError reports a data payload that never became valid JSON.
type DecodeError struct {
	Event  string
	Data   string
	Lines  int // data lines accumulated before giving up
	Reason string
	Err    error // last JSON error seen for the payload
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q event: %s after %d line(s): %v", e.Event, e.Reason, e.Lines, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
