package processor

import (
	"encoding/json"
	"errors"

	"github.com/namikmesic/graphstream/internal/tracker"
)

// Event names emitted by the agent service's run stream.
const (
	EventMessages         = "messages"
	EventMessagesPartial  = "messages/partial"
	EventMessagesComplete = "messages/complete"
	EventMessagesMetadata = "messages/metadata"
	EventToolResponse     = "tool_response"
	EventToolStart        = "tool_start"
	EventToolEnd          = "tool_end"
	EventMetadata         = "metadata"
	EventUpdates          = "updates"
	EventValues           = "values"
	EventError            = "error"
	EventEnd              = "end"
)

// Message is one unit of agent output as it appears on the wire. Only the
// fields used for extraction and tool tracking are decoded.
type Message struct {
	Type           string             `json:"type"`
	ID             string             `json:"id,omitempty"`
	Content        json.RawMessage    `json:"content,omitempty"`          // string OR []ContentBlock
	ToolCalls      []tracker.ToolCall `json:"-"`
	ToolResponses  []json.RawMessage  `json:"tool_responses,omitempty"`   // objects or JSON-encoded strings
	ToolCallResult json.RawMessage    `json:"tool_call_result,omitempty"` // string OR object
}

type wireToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// UnmarshalJSON tolerates partially streamed tool calls whose args are not
// yet an object.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var wire struct {
		plain
		ToolCalls []wireToolCall `json:"tool_calls"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*m = Message(wire.plain)

	for _, tc := range wire.ToolCalls {
		args := map[string]any{}
		if len(tc.Args) > 0 {
			if err := json.Unmarshal(tc.Args, &args); err != nil {
				args = map[string]any{}
			}
		}
		m.ToolCalls = append(m.ToolCalls, tracker.ToolCall{ID: tc.ID, Name: tc.Name, Args: args})
	}
	return nil
}

// ContentBlock is one element of list-shaped message content.
type ContentBlock struct {
	Type string `json:"type"` // "text" | "tool_use" | ...
	Text string `json:"text"`
}

var errNoMessages = errors.New("payload is neither a message list nor {messages: [...]}")

// decodeMessages handles both []Message and {"messages": []Message}.
func decodeMessages(raw json.RawMessage) ([]Message, error) {
	var list []Message
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Messages == nil {
		return nil, errNoMessages
	}
	return wrapped.Messages, nil
}
