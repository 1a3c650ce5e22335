package client

import (
	"errors"
	"fmt"
)

const maxErrorBody = 4 * 1024

// ErrNoBody is reported when a successful response carries no body.
var ErrNoBody = errors.New("response has no body")

// TransportError is returned when the service cannot be reached or answers
// with a non-2xx status. Nothing is decoded from such a response.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int    // zero when no response was received
	Body       string // truncated response body, if any
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
