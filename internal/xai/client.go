// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package xai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the xAI API.
const (
	// DefaultBaseURL is the base URL for the xAI API.
	DefaultBaseURL = "https://api.x.ai/v1"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps how much of a response body is read into memory.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// streamReadSize is the buffer size for reading streaming response bodies.
	streamReadSize = 4096
)

var (
	// sharedHTTPClient serves all non-streaming requests. Connection pooling
	// keeps repeated completions on a warm connection.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient serves streaming requests. It carries no client
	// timeout; stream lifetime is controlled through the request context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// StreamCallback receives one text fragment per decoded stream chunk.
// Returning an error aborts the stream.
type StreamCallback func(fragment string) error

// Client communicates with the xAI chat completions API.
//
// The zero value is not usable; construct with NewClient. A Client is safe
// for concurrent use. Requests fail fast: there are no automatic retries,
// and callers decide whether a failed exchange is worth repeating.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	defaultModel string
	limiter      *rate.Limiter
}

// NewClient creates a client for the xAI API with the given key.
//
// An empty key still produces a usable client; requests will fail with an
// UpstreamError carrying the provider's 401 once they reach the API.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:       strings.TrimSpace(apiKey),
		baseURL:      DefaultBaseURL,
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
		defaultModel: "grok-4-0709",
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithTimeout sets a per-client timeout for non-streaming requests,
// replacing the shared client with a dedicated one.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient = &http.Client{
		Transport: sharedHTTPClient.Transport,
		Timeout:   timeout,
	}
	return c
}

// WithDefaultModel sets the model used when a request leaves Model empty.
func (c *Client) WithDefaultModel(model string) *Client {
	c.defaultModel = model
	return c
}

// WithRateLimit caps outbound requests at rps per second with the given
// burst. Calls beyond the cap block until the limiter admits them or the
// context is done.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// DefaultModel returns the model used when requests do not name one.
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// setHeaders sets the required headers for xAI API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "grokchat/0.1.0")
}

// wait blocks on the client rate limiter, if one is configured. A wait
// the context cannot accommodate is reported as a timeout.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return wrapTransportErr("rate limit", ctx.Err())
		}
		return &TimeoutError{Op: "rate limit", Err: err}
	}
	return nil
}

// prepare fills request defaults and marshals it into an HTTP request.
func (c *Client) prepare(ctx context.Context, req ChatRequest, stream bool) (*http.Request, error) {
	if req.Model == "" {
		req.Model = c.defaultModel
	}
	req.Stream = stream

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)
	return httpReq, nil
}

// readBody reads a response body with a size cap.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, &ProtocolError{Reason: fmt.Sprintf("response exceeded %d bytes", int64(MaxResponseSize))}
	}
	return body, nil
}

// Chat performs a non-streaming chat completion.
//
// Non-2xx responses become an *UpstreamError carrying the status and raw
// body; the error text is never parsed or rewritten here. A 2xx response
// whose body is not the expected shape becomes a *ProtocolError.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	httpReq, err := c.prepare(ctx, req, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransportErr("chat", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("parse response: %v", err)}
	}
	return &chatResp, nil
}

// ChatStream performs a streaming chat completion, invoking callback once
// per decoded fragment. Chunks that decode to no content are not surfaced.
// The accumulated full text is returned on success.
//
// The stream ends when the server closes the connection; the [DONE]
// sentinel itself carries nothing. If the upstream rejects the request
// before streaming begins, the error body is read in full and returned as
// an *UpstreamError, same as the non-streaming path.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callback StreamCallback) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	httpReq, err := c.prepare(ctx, req, true)
	if err != nil {
		return "", err
	}

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return "", wrapTransportErr("chat stream", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := readBody(resp)
		if readErr != nil {
			return "", &UpstreamError{Status: resp.StatusCode, Body: ""}
		}
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var full strings.Builder
	decoder := NewDecoder()
	buf := make([]byte, streamReadSize)

	emit := func(fragment string) error {
		if fragment == "" {
			return nil
		}
		full.WriteString(fragment)
		if callback != nil {
			return callback(fragment)
		}
		return nil
	}

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if cbErr := emit(decoder.Feed(buf[:n])); cbErr != nil {
				return full.String(), cbErr
			}
		}
		if err == io.EOF {
			if cbErr := emit(decoder.Flush()); cbErr != nil {
				return full.String(), cbErr
			}
			return full.String(), nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return full.String(), wrapTransportErr("chat stream", ctx.Err())
			}
			return full.String(), wrapTransportErr("chat stream", err)
		}
	}
}

// StreamEvent is one event on a streaming channel. Exactly one terminal
// event is sent: Done true, with Err set if the stream failed.
type StreamEvent struct {
	Fragment string
	Done     bool
	Err      error
}

// ChatStreamChan is the channel variant of ChatStream for consumers that
// select on stream output alongside other events. The channel is closed
// after the terminal event. Cancel the context to abandon the stream; the
// goroutine does not block on a slow reader beyond the channel buffer.
func (c *Client) ChatStreamChan(ctx context.Context, req ChatRequest) <-chan StreamEvent {
	events := make(chan StreamEvent, 32)
	go func() {
		defer close(events)
		_, err := c.ChatStream(ctx, req, func(fragment string) error {
			select {
			case events <- StreamEvent{Fragment: fragment}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		events <- StreamEvent{Done: true, Err: err}
	}()
	return events
}

// ListModels retrieves the model identifiers this key can use, filtered to
// text-generation Grok models and sorted for stable display.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportErr("list models", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var modelsResp modelsResponse
	if err := json.Unmarshal(body, &modelsResp); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("parse models response: %v", err)}
	}

	models := make([]string, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		if isTextModel(m.ID) {
			models = append(models, m.ID)
		}
	}
	sort.Strings(models)
	return models, nil
}

// isTextModel filters the model catalog to chat-capable Grok models,
// excluding image generation and vision variants.
func isTextModel(id string) bool {
	if !strings.Contains(id, "grok") {
		return false
	}
	if strings.Contains(id, "image") || strings.Contains(id, "vision") {
		return false
	}
	return true
}

// ValidateKey checks the API key by listing models. A nil error means the
// key authenticated; an *UpstreamError with status 401 or 403 means it did
// not.
func (c *Client) ValidateKey(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}
