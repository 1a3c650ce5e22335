// Package client talks to the agent service's HTTP API: threads, assistant
// search and streamed runs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

type Thread struct {
	ThreadID  string         `json:"thread_id"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type Assistant struct {
	AssistantID string         `json:"assistant_id"`
	GraphID     string         `json:"graph_id"`
	Name        string         `json:"name"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type InputMessage struct {
	Role    string `json:"role"` // "user"
	Content string `json:"content"`
}

type RunInput struct {
	Messages []InputMessage `json:"messages"`
}

type RunRequest struct {
	AssistantID string   `json:"assistant_id"`
	Input       RunInput `json:"input"`
	StreamMode  []string `json:"stream_mode"`
}

// DefaultStreamModes asks for message chunks plus node updates.
var DefaultStreamModes = []string{"messages", "updates"}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			// No timeout: run streams can stay open for minutes
			Timeout: 0,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) CreateThread(ctx context.Context) (Thread, error) {
	var t Thread
	if err := c.doJSON(ctx, http.MethodPost, "/threads", map[string]any{}, &t); err != nil {
		return Thread{}, fmt.Errorf("create thread: %w", err)
	}
	return t, nil
}

// SearchAssistants lists assistants, narrowed to graphID when it is set.
func (c *Client) SearchAssistants(ctx context.Context, graphID string) ([]Assistant, error) {
	body := map[string]any{"limit": 100}
	if graphID != "" {
		body["graph_id"] = graphID
	}

	var out []Assistant
	if err := c.doJSON(ctx, http.MethodPost, "/assistants/search", body, &out); err != nil {
		return nil, fmt.Errorf("search assistants: %w", err)
	}
	return out, nil
}

// StreamRun starts a run on threadID and returns the response body once the
// service has accepted it. The caller closes the body.
func (c *Client) StreamRun(ctx context.Context, threadID string, req RunRequest) (io.ReadCloser, error) {
	if len(req.StreamMode) == 0 {
		req.StreamMode = DefaultStreamModes
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode run request: %w", err)
	}

	path := "/threads/" + url.PathEscape(threadID) + "/runs/stream"
	resp, err := c.send(ctx, http.MethodPost, path, payload, "text/event-stream")
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("thread_id", threadID).
		Str("assistant_id", req.AssistantID).
		Str("content_type", resp.Header.Get("Content-Type")).
		Msg("run stream opened")
	return resp.Body, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.send(ctx, method, path, payload, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs the request and fails with a *TransportError unless the
// response is a 2xx with a body.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, accept string) (*http.Response, error) {
	target := buildTargetURL(c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = prepareRequestHeaders(c.apiKey, accept)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", target).Msg("agent service request failed")
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Err: ErrNoBody}
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("agent service request")
	return resp, nil
}
