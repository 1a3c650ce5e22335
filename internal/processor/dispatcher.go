package processor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/namikmesic/graphstream/internal/stream"
	"github.com/namikmesic/graphstream/internal/tracker"
	"github.com/rs/zerolog/log"
)

// Dispatcher routes decoded events to content extraction and tool tracking.
// One Dispatcher serves one run.
type Dispatcher struct {
	tracker    *tracker.Tracker
	newSession bool // applied to the first tool call observed
}

// NewDispatcher returns a Dispatcher reporting tool calls to t, which may be
// nil. When newSession is set the run's first tool call opens a new session.
func NewDispatcher(t *tracker.Tracker, newSession bool) *Dispatcher {
	return &Dispatcher{tracker: t, newSession: newSession}
}

// Dispatch returns the text carried by ev, if any. Failures while handling
// one event are logged and yield no text.
func (d *Dispatcher) Dispatch(ev stream.Event) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int("index", ev.Index).
				Str("event", ev.Name).
				Interface("panic", r).
				Msg("event handling panicked")
			text, ok = "", false
		}
	}()

	switch ev.Name {
	case EventMessages, EventMessagesPartial, EventMessagesComplete:
		return d.handleMessages(ev)
	case EventToolResponse:
		return toolResponseText(ev)
	case EventToolStart, EventToolEnd, EventMetadata, EventMessagesMetadata, EventUpdates, EventValues, EventEnd:
		log.Debug().Int("index", ev.Index).Str("event", ev.Name).Msg("informational event")
	case EventError:
		log.Warn().Int("index", ev.Index).RawJSON("payload", ev.Data).Msg("agent reported an error")
	default:
		log.Debug().Int("index", ev.Index).Str("event", ev.Name).Msg("unhandled event")
	}
	return "", false
}

func (d *Dispatcher) handleMessages(ev stream.Event) (string, bool) {
	msgs, err := decodeMessages(ev.Data)
	if err != nil {
		log.Warn().Err(err).Int("index", ev.Index).Str("event", ev.Name).Msg("skipping event")
		return "", false
	}

	if ev.Name == EventMessagesPartial && len(msgs) > 0 && len(msgs[0].ToolCalls) > 0 {
		d.observe(msgs[0].ToolCalls[0])
	}
	return firstContent(msgs)
}

func (d *Dispatcher) observe(call tracker.ToolCall) {
	if d.tracker == nil {
		return
	}
	if d.tracker.Observe(call, d.newSession) {
		d.newSession = false
	}
}

// toolResponseText returns result verbatim when it is a string, otherwise
// its indented JSON.
func toolResponseText(ev stream.Event) (string, bool) {
	var payload struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		log.Warn().Err(err).Int("index", ev.Index).Msg("malformed tool_response payload")
		return "", false
	}
	if len(payload.Result) == 0 || string(payload.Result) == "null" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(payload.Result, &s); err == nil {
		return s, s != ""
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, payload.Result, "", "  "); err != nil {
		log.Warn().Err(fmt.Errorf("indent tool result: %w", err)).Int("index", ev.Index).Msg("malformed tool_response payload")
		return "", false
	}
	return buf.String(), true
}
