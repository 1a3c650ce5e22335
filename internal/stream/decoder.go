package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

const defaultMaxPendingLines = 8

// Decoder turns arbitrarily split chunks of a run stream into Events.
//
// Lines are resolved only once their terminator has arrived, so any
// chunking of the same bytes yields the same events. A data payload that
// fails to decode is kept. A later data line that is valid JSON on its own
// replaces it; any other data line is appended to it. The payload is given
// up on when a new event line arrives or maxPending lines have been tried,
// and after the line limit the remaining data lines of that event are
// skipped so they cannot pair with the next event line.
type Decoder struct {
	buffer     []byte
	eventIndex int
	maxPending int

	eventName string // pending event: value
	hasName   bool
	data      string // pending data: value
	hasData   bool
	lines     int   // data lines folded into the pending payload
	lastErr   error // set once the pending payload failed to decode
	rawBytes  int
	skipData  bool  // drop data lines until the next event line
}

func NewDecoder(maxPendingLines int) *Decoder {
	if maxPendingLines <= 0 {
		maxPendingLines = defaultMaxPendingLines
	}
	return &Decoder{maxPending: maxPendingLines}
}

// batch collects the output of one Feed or Flush call.
type batch struct {
	events []Event
	errs   []*DecodeError
}

// Feed appends chunk to the buffer and returns the events completed by it,
// along with any pending payloads that were given up on.
func (d *Decoder) Feed(chunk []byte) ([]Event, []*DecodeError) {
	d.buffer = append(d.buffer, chunk...)
	var out batch

	for {
		idx := bytes.IndexByte(d.buffer, '\n')
		if idx == -1 {
			break
		}

		line := string(d.buffer[:idx])
		d.buffer = d.buffer[idx+1:]
		d.processLine(line, len(line)+1, &out)
	}

	return out.events, out.errs
}

// Flush resolves whatever is left once the source has ended: an unterminated
// final line is processed, and a payload still failing to decode is reported.
func (d *Decoder) Flush() ([]Event, []*DecodeError) {
	var out batch
	if len(d.buffer) > 0 {
		line := string(d.buffer)
		d.buffer = nil
		d.processLine(line, len(line), &out)
	}
	if derr := d.Abandon(ReasonEndOfStream); derr != nil {
		out.errs = append(out.errs, derr)
	}
	return out.events, out.errs
}

// Pending reports whether a data payload is waiting for more bytes.
func (d *Decoder) Pending() bool {
	return d.lastErr != nil
}

// Abandon drops the pending pair. It returns a DecodeError when the pair
// held a payload that had already failed to decode, nil otherwise.
func (d *Decoder) Abandon(reason string) *DecodeError {
	var derr *DecodeError
	if d.lastErr != nil {
		derr = &DecodeError{
			Event:  d.eventName,
			Data:   d.data,
			Lines:  d.lines,
			Reason: reason,
			Err:    d.lastErr,
		}
	}
	d.reset()
	return derr
}

func (d *Decoder) processLine(raw string, size int, out *batch) {
	line := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(line, "event:"):
		if d.lastErr != nil {
			out.errs = append(out.errs, d.Abandon(ReasonSuperseded))
		}
		d.skipData = false
		d.eventName = strings.TrimSpace(line[len("event:"):])
		d.hasName = true
		d.rawBytes += size

	case strings.HasPrefix(line, "data:"):
		if d.skipData {
			return
		}
		value := strings.TrimSpace(line[len("data:"):])
		switch {
		case d.lastErr == nil:
			d.data = value
			d.lines = 1
		case json.Valid([]byte(value)):
			out.errs = append(out.errs, d.replaceData(value))
		default:
			// continuation of a payload that has not decoded yet
			d.data += "\n" + value
			d.lines++
		}
		d.hasData = true
		d.rawBytes += size

	default:
		// blank separators, comments, id: and retry: lines
		return
	}

	d.tryDispatch(out)
}

// replaceData swaps the failed payload for value, keeping the event name, and
// reports the payload it dropped.
func (d *Decoder) replaceData(value string) *DecodeError {
	derr := &DecodeError{
		Event:  d.eventName,
		Data:   d.data,
		Lines:  d.lines,
		Reason: ReasonReplaced,
		Err:    d.lastErr,
	}
	d.data = value
	d.lines = 1
	d.lastErr = nil
	return derr
}

func (d *Decoder) tryDispatch(out *batch) {
	if !d.hasName || !d.hasData {
		return
	}

	var payload json.RawMessage
	if err := json.Unmarshal([]byte(d.data), &payload); err != nil {
		d.lastErr = err
		if d.lines >= d.maxPending {
			out.errs = append(out.errs, d.Abandon(ReasonTooManyLines))
			d.skipData = true
		}
		return
	}

	d.eventIndex++
	out.events = append(out.events, Event{
		Index:    d.eventIndex,
		Name:     d.eventName,
		Data:     payload,
		RawBytes: d.rawBytes,
	})
	d.reset()
}

func (d *Decoder) reset() {
	d.eventName = ""
	d.hasName = false
	d.data = ""
	d.hasData = false
	d.lines = 0
	d.lastErr = nil
	d.rawBytes = 0
}
