package processor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, raw string) Message {
	t.Helper()
	var m Message
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{
			name:   "ai string content",
			raw:    `{"type":"ai","content":"  The PR adds retries.  "}`,
			want:   "  The PR adds retries.  ",
			wantOK: true,
		},
		{
			name:   "ai chunk content",
			raw:    `{"type":"AIMessageChunk","content":"Hel"}`,
			want:   "Hel",
			wantOK: true,
		},
		{
			name:   "ai content blocks",
			raw:    `{"type":"ai","content":[{"type":"text","text":"Score: "},{"type":"tool_use","id":"t1"},{"type":"text","text":"8/10"}]}`,
			want:   "Score: 8/10",
			wantOK: true,
		},
		{
			name:   "ai content wins over tool responses",
			raw:    `{"type":"ai","content":"direct","tool_responses":[{"content":"from tool"}]}`,
			want:   "direct",
			wantOK: true,
		},
		{
			name:   "blank ai content falls through to tool responses",
			raw:    `{"type":"ai","content":"   ","tool_responses":[{"content":"from tool"}]}`,
			want:   "from tool",
			wantOK: true,
		},
		{
			name:   "non ai type ignores content",
			raw:    `{"type":"human","content":"review PR 12"}`,
			wantOK: false,
		},
		{
			name:   "tool responses skip empty and malformed entries",
			raw:    `{"type":"tool","tool_responses":[{"content":""},"not json",{"content":42},"{\"content\":\"encoded\"}"]}`,
			want:   "encoded",
			wantOK: true,
		},
		{
			name:   "tool responses with nothing usable fall through to tool_call_result",
			raw:    `{"type":"tool","tool_responses":[{"status":"ok"}],"tool_call_result":"fallback"}`,
			want:   "fallback",
			wantOK: true,
		},
		{
			name:   "tool_call_result json result field",
			raw:    `{"type":"tool","tool_call_result":"{\"result\":\"42\"}"}`,
			want:   "42",
			wantOK: true,
		},
		{
			name:   "tool_call_result json content wins over result",
			raw:    `{"type":"tool","tool_call_result":"{\"result\":\"r\",\"content\":\"c\"}"}`,
			want:   "c",
			wantOK: true,
		},
		{
			name:   "tool_call_result plain text",
			raw:    `{"type":"tool","tool_call_result":"plain text, not json"}`,
			want:   "plain text, not json",
			wantOK: true,
		},
		{
			name:   "tool_call_result json scalar is returned raw",
			raw:    `{"type":"tool","tool_call_result":"42"}`,
			want:   "42",
			wantOK: true,
		},
		{
			name:   "tool_call_result object without text fields",
			raw:    `{"type":"tool","tool_call_result":"{\"status\":\"ok\"}"}`,
			wantOK: false,
		},
		{
			name:   "tool_call_result as object",
			raw:    `{"type":"tool","tool_call_result":{"content":"inline"}}`,
			want:   "inline",
			wantOK: true,
		},
		{
			name:   "empty tool_call_result",
			raw:    `{"type":"tool","tool_call_result":"  "}`,
			wantOK: false,
		},
		{
			name:   "nothing recognizable",
			raw:    `{"type":"ai","content":""}`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(message(t, tt.raw))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify(t *testing.T) {
	shapes := Classify(message(t, `{"type":"ai","content":"hi","tool_responses":[],"tool_call_result":"x"}`))
	require.Len(t, shapes, 3)
	assert.IsType(t, AIText{}, shapes[0])
	assert.IsType(t, ToolResponses{}, shapes[1])
	assert.IsType(t, ToolCallResult{}, shapes[2])

	assert.Equal(t, []Shape{Unknown{}}, Classify(message(t, `{"type":"system"}`)))
	assert.Equal(t, []Shape{Unknown{}}, Classify(message(t, `{"type":"tool","tool_call_result":null}`)))
}

func TestMessageToolCalls(t *testing.T) {
	m := message(t, `{"type":"AIMessageChunk","content":"","tool_calls":[
		{"id":"call_1","name":"get_pr_changes","args":{"pr_id":7}},
		{"id":"call_2","name":"add_pull_request_comment","args":"{\"pr_id\""}
	]}`)

	require.Len(t, m.ToolCalls, 2)
	assert.Equal(t, "get_pr_changes", m.ToolCalls[0].Name)
	assert.Equal(t, "call_1", m.ToolCalls[0].ID)
	assert.InDelta(t, 7, m.ToolCalls[0].Args["pr_id"], 0)
	assert.Equal(t, "add_pull_request_comment", m.ToolCalls[1].Name)
	assert.Empty(t, m.ToolCalls[1].Args)
}

func TestDecodeMessages(t *testing.T) {
	list, err := decodeMessages(json.RawMessage(`[{"type":"ai","content":"a"}]`))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	wrapped, err := decodeMessages(json.RawMessage(`{"messages":[{"type":"human","content":"q"},{"type":"ai","content":"a"}]}`))
	require.NoError(t, err)
	assert.Len(t, wrapped, 2)

	_, err = decodeMessages(json.RawMessage(`{"result":"x"}`))
	assert.ErrorIs(t, err, errNoMessages)

	_, err = decodeMessages(json.RawMessage(`"text"`))
	assert.Error(t, err)
}

func TestFirstContentDoesNotConcatenate(t *testing.T) {
	msgs := []Message{
		message(t, `{"type":"human","content":"question"}`),
		message(t, `{"type":"ai","content":"first"}`),
		message(t, `{"type":"ai","content":"second"}`),
	}
	got, ok := firstContent(msgs)
	assert.True(t, ok)
	assert.Equal(t, "first", got)
}
