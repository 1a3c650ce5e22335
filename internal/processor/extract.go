package processor

import (
	"encoding/json"
	"strings"
)

// Shape is the closed set of content layouts a Message can carry. Classify
// lists them most specific first; Extract takes the first that yields text.
type Shape interface {
	shape()
}

// AIText is a direct answer from the model.
type AIText struct {
	Text string
}

// ToolResponses is a structured list of tool responses.
type ToolResponses struct {
	Responses []json.RawMessage
}

// ToolCallResult is a tool's free-form result: a string, possibly holding
// JSON, or an object.
type ToolCallResult struct {
	Raw json.RawMessage
}

// Unknown carries no recognizable content.
type Unknown struct{}

func (AIText) shape()         {}
func (ToolResponses) shape()  {}
func (ToolCallResult) shape() {}
func (Unknown) shape()        {}

// Classify returns the shapes present in m in extraction order. It always
// returns at least one shape; Unknown only appears alone.
func Classify(m Message) []Shape {
	var shapes []Shape

	if isAIType(m.Type) {
		if text := contentText(m.Content); strings.TrimSpace(text) != "" {
			shapes = append(shapes, AIText{Text: text})
		}
	}
	if m.ToolResponses != nil {
		shapes = append(shapes, ToolResponses{Responses: m.ToolResponses})
	}
	if len(m.ToolCallResult) > 0 && string(m.ToolCallResult) != "null" {
		shapes = append(shapes, ToolCallResult{Raw: m.ToolCallResult})
	}

	if len(shapes) == 0 {
		return []Shape{Unknown{}}
	}
	return shapes
}

// Extract returns the human-readable text carried by m, or false when none
// of its shapes yields any.
func Extract(m Message) (string, bool) {
	for _, s := range Classify(m) {
		var (
			text string
			ok   bool
		)
		switch s := s.(type) {
		case AIText:
			text, ok = s.Text, true
		case ToolResponses:
			text, ok = fromToolResponses(s.Responses)
		case ToolCallResult:
			text, ok = fromToolCallResult(s.Raw)
		case Unknown:
		}
		if ok {
			return text, true
		}
	}
	return "", false
}

// firstContent scans msgs in order and returns the first extracted text.
func firstContent(msgs []Message) (string, bool) {
	for _, m := range msgs {
		if text, ok := Extract(m); ok {
			return text, true
		}
	}
	return "", false
}

// isAIType accepts complete AI messages and the chunks streamed for them.
func isAIType(t string) bool {
	return t == "ai" || t == "AIMessageChunk"
}

// contentText handles both string content and a list of content blocks.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	texts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		var str string
		if err := json.Unmarshal(b, &str); err == nil {
			texts = append(texts, str)
			continue
		}
		var block ContentBlock
		if err := json.Unmarshal(b, &block); err == nil && block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	return strings.Join(texts, "")
}

// fromToolResponses returns the first usable response content. A response is
// either an object with a string content field or a string holding such an
// object as JSON. Responses matching neither are skipped.
func fromToolResponses(responses []json.RawMessage) (string, bool) {
	for _, raw := range responses {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err == nil {
			if text, ok := stringField([]byte(encoded), "content"); ok {
				return text, true
			}
			continue
		}

		if text, ok := stringField(raw, "content"); ok {
			return text, true
		}
	}
	return "", false
}

// fromToolCallResult unpacks a tool's result. Strings that are not JSON are
// assumed to be the text itself.
func fromToolCallResult(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// already an object
		return resultFields(raw)
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}

	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return s, true
	}
	if _, isObject := decoded.(map[string]any); !isObject {
		return s, true
	}
	return resultFields([]byte(s))
}

func resultFields(obj []byte) (string, bool) {
	if text, ok := stringField(obj, "content"); ok {
		return text, true
	}
	return stringField(obj, "result")
}

// stringField returns obj[key] when obj is a JSON object and the value is a
// non-empty string.
func stringField(obj []byte, key string) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return "", false
	}
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
