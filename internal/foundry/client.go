// Package foundry provides a REST client for the remote agent-execution
// platform: threads, messages, runs and run polling.
package foundry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenProvider supplies the credential presented to the agent platform.
// The client does not interpret the token; it only forwards it.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider backed by a fixed API key.
type StaticToken string

// Token returns the fixed key.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("foundry: API key is empty")
	}
	return string(t), nil
}

// HTTPStatusError captures non-2xx upstream responses with status-aware
// context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("foundry: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// HTTPStatusCode returns the upstream status code.
func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused client for the agent platform's thread/run API.
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
	creds      TokenProvider
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAPIVersion overrides the default api-version query parameter.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = strings.TrimSpace(version)
	}
}

// NewClient creates a Client for the given platform endpoint. The credential
// provider is opaque to the client and consulted per request.
func NewClient(endpoint string, creds TokenProvider, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("foundry: endpoint must not be empty")
	}
	if creds == nil {
		return nil, errors.New("foundry: token provider must not be nil")
	}
	c := &Client{
		baseURL:    endpoint,
		apiVersion: "2024-12-01-preview",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		creds:      creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateThread creates a new remote thread.
func (c *Client) CreateThread(ctx context.Context) (Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &thread); err != nil {
		return Thread{}, err
	}
	if thread.ID == "" {
		return Thread{}, errors.New("foundry: create thread returned empty id")
	}
	return thread, nil
}

// CreateMessage appends a message with the given role to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) error {
	path := fmt.Sprintf("/threads/%s/messages", url.PathEscape(threadID))
	return c.do(ctx, http.MethodPost, path, createMessageRequest{Role: role, Content: content}, nil)
}

// CreateRun starts a run of the given agent against a thread.
func (c *Client) CreateRun(ctx context.Context, threadID, agentID string) (Run, error) {
	path := fmt.Sprintf("/threads/%s/runs", url.PathEscape(threadID))
	var run Run
	if err := c.do(ctx, http.MethodPost, path, createRunRequest{AssistantID: agentID}, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	path := fmt.Sprintf("/threads/%s/runs/%s", url.PathEscape(threadID), url.PathEscape(runID))
	var run Run
	if err := c.do(ctx, http.MethodGet, path, nil, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListMessages returns the thread's messages, newest first, with content
// blocks narrowed to the tagged-variant form.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	path := fmt.Sprintf("/threads/%s/messages", url.PathEscape(threadID))
	var list messageList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	messages := make([]Message, 0, len(list.Data))
	for _, raw := range list.Data {
		messages = append(messages, raw.narrow())
	}
	return messages, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("foundry: resolve credential: %w", err)
	}

	reqURL := c.baseURL + path
	if c.apiVersion != "" {
		reqURL += "?api-version=" + url.QueryEscape(c.apiVersion)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("foundry: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("foundry: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("foundry: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        reqURL,
			Body:       compactErrorBody(buf),
		}
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("foundry: read response body: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("foundry: decode response: %w", err)
	}
	return nil
}

// compactErrorBody extracts the platform's error message when the body is
// its standard error envelope, falling back to the raw body.
func compactErrorBody(buf []byte) string {
	var envelope apiError
	if err := json.Unmarshal(buf, &envelope); err == nil && len(envelope.Error.Message) > 0 {
		var msg string
		if err := json.Unmarshal(envelope.Error.Message, &msg); err == nil && msg != "" {
			if envelope.Error.Code != "" {
				return envelope.Error.Code + ": " + msg
			}
			return msg
		}
	}
	return string(buf)
}
