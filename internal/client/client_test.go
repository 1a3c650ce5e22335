package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRun(t *testing.T) {
	var got RunRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/threads/th-1/runs/stream", r.URL.Path)
		assert.Equal(t, "lg-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: end\ndata: null\n\n")
	}))
	defer srv.Close()

	c := New(srv.URL, "lg-key")
	body, err := c.StreamRun(context.Background(), "th-1", RunRequest{
		AssistantID: "asst-1",
		Input:       RunInput{Messages: []InputMessage{{Role: "user", Content: "review PR 12"}}},
	})
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "event: end\ndata: null\n\n", string(raw))

	assert.Equal(t, "asst-1", got.AssistantID)
	assert.Equal(t, DefaultStreamModes, got.StreamMode)
	assert.Equal(t, "review PR 12", got.Input.Messages[0].Content)
}

func TestStreamRunTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"graph crashed"}`)
	}))
	defer srv.Close()

	body, err := New(srv.URL, "").StreamRun(context.Background(), "th-1", RunRequest{AssistantID: "a"})
	assert.Nil(t, body)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
	assert.Contains(t, terr.Body, "graph crashed")
	assert.Contains(t, err.Error(), "status 500")
}

func TestStreamRunEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").StreamRun(context.Background(), "th-1", RunRequest{AssistantID: "a"})
	assert.ErrorIs(t, err, ErrNoBody)
}

func TestStreamRunUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "").StreamRun(context.Background(), "th-1", RunRequest{AssistantID: "a"})
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, terr.StatusCode)
}

func TestCreateThreadAndSearchAssistants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/threads":
			io.WriteString(w, `{"thread_id":"th-9","created_at":"2026-10-19T10:00:00Z"}`)
		case "/api/assistants/search":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "pr_reviewer", body["graph_id"])
			io.WriteString(w, `[{"assistant_id":"asst-1","graph_id":"pr_reviewer","name":"PR reviewer"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", "")

	th, err := c.CreateThread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "th-9", th.ThreadID)

	list, err := c.SearchAssistants(context.Background(), "pr_reviewer")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "asst-1", list[0].AssistantID)
}

func TestBuildTargetURL(t *testing.T) {
	assert.Equal(t, "https://agents.example.com/threads", buildTargetURL("https://agents.example.com", "/threads"))
	assert.Equal(t, "https://agents.example.com/v1/threads", buildTargetURL("https://agents.example.com/v1/", "/threads"))
	assert.Equal(t, "http://localhost:2024/threads", buildTargetURL("::bad", "/threads"))
}
