// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package xai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("xai-test-key").WithBaseURL(srv.URL)
}

func TestChatSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer xai-test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "grok-4-0709", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hello", req.Messages[0].Content)

		resp := ChatResponse{
			ID:    "cmpl-1",
			Model: req.Model,
			Choices: []Choice{
				{Message: &ChatMessage{Role: "assistant", Content: "hi!"}, FinishReason: "stop"},
			},
			Usage: &Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
		}
		json.NewEncoder(w).Encode(resp)
	})

	resp, err := client.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	})
	require.NoError(t, err)

	content, err := resp.Content()
	require.NoError(t, err)
	assert.Equal(t, "hi!", content)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestChatUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"server melted"}`))
	})

	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	})
	require.Error(t, err)

	upErr, ok := IsUpstream(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, upErr.Status)
	assert.Contains(t, upErr.Body, "server melted")
}

func TestChatAuthError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	})

	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	})
	upErr, ok := IsUpstream(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, upErr.Status)
}

func TestChatMissingChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"cmpl-1","choices":[]}`))
	})

	resp, err := client.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	})
	require.NoError(t, err)

	_, err = resp.Content()
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestChatMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	})

	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	})
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestChatRequestModelOverride(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "grok-3-mini", req.Model)
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: &ChatMessage{Role: "assistant", Content: "ok"}}},
		})
	})

	_, err := client.Chat(context.Background(), ChatRequest{
		Model:    "grok-3-mini",
		Messages: []ChatMessage{NewUserMessage("hello")},
	})
	require.NoError(t, err)
}

func TestChatStreamEndToEnd(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, content := range []string{"Hel", "lo", " world"} {
			line := `data: {"choices":[{"index":0,"delta":{"content":` + mustJSON(t, content) + `}}]}` + "\n\n"
			w.Write([]byte(line))
			flusher.Flush()
		}
		w.Write([]byte("data: [DONE]\n\n"))
	})

	var fragments []string
	full, err := client.ChatStream(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	}, func(fragment string) error {
		fragments = append(fragments, fragment)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", full)
	assert.NotEmpty(t, fragments)
}

func TestChatStreamUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	})

	_, err := client.ChatStream(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	}, nil)
	upErr, ok := IsUpstream(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, upErr.Status)
	assert.Contains(t, upErr.Body, "rate limited")
}

func TestChatStreamCallbackAbort(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`data: {"choices":[{"index":0,"delta":{"content":"a"}}]}` + "\n"))
		w.Write([]byte(`data: {"choices":[{"index":0,"delta":{"content":"b"}}]}` + "\n"))
	})

	abort := errors.New("enough")
	_, err := client.ChatStream(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	}, func(string) error {
		return abort
	})
	assert.ErrorIs(t, err, abort)
}

func TestChatStreamChan(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`data: {"choices":[{"index":0,"delta":{"content":"streamed"}}]}` + "\n"))
		w.Write([]byte("data: [DONE]\n"))
	})

	var full string
	var done bool
	for ev := range client.ChatStreamChan(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	}) {
		if ev.Done {
			done = true
			assert.NoError(t, ev.Err)
			continue
		}
		full += ev.Fragment
	}
	assert.True(t, done)
	assert.Equal(t, "streamed", full)
}

func TestListModelsFiltersToTextGrok(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer xai-test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[
			{"id":"grok-4-0709"},
			{"id":"grok-2-image-1212"},
			{"id":"grok-2-vision-1212"},
			{"id":"grok-3-mini"},
			{"id":"other-model"}
		]}`))
	})

	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"grok-3-mini", "grok-4-0709"}, models)
}

func TestValidateKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer xai-test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	})

	assert.NoError(t, client.ValidateKey(context.Background()))

	bad := NewClient("wrong").WithBaseURL(client.baseURL)
	err := bad.ValidateKey(context.Background())
	upErr, ok := IsUpstream(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, upErr.Status)
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Chat(ctx, ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitAllowsBurst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: &ChatMessage{Role: "assistant", Content: "ok"}}},
		})
	}).WithRateLimit(1, 3)

	for i := 0; i < 3; i++ {
		_, err := client.Chat(context.Background(), ChatRequest{
			Messages: []ChatMessage{NewUserMessage("hello")},
		})
		require.NoError(t, err)
	}
}

func TestRateLimitExhaustedIsTimeout(t *testing.T) {
	var hits int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: &ChatMessage{Role: "assistant", Content: "ok"}}},
		})
	}).WithRateLimit(0.01, 1)

	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("first")},
	})
	require.NoError(t, err)

	// The bucket is drained and refills at one token per 100s; a short
	// deadline cannot cover the wait.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Chat(ctx, ChatRequest{
		Messages: []ChatMessage{NewUserMessage("second")},
	})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, 1, hits)
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewClient("xai-test-key").IsConfigured())
	assert.False(t, NewClient("").IsConfigured())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
