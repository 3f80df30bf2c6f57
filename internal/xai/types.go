// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package xai

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is a single role/content pair in the request payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user chat message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant chat message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// NewSystemMessage creates a system chat message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// ChatRequest is the payload POSTed to the completions endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

// Usage reports token accounting for a completed request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Delta is an incremental fragment inside a streaming choice.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Choice is one completion alternative in a response. Message is set on
// non-streaming responses, Delta on streaming events.
type Choice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message,omitempty"`
	Delta        *Delta       `json:"delta,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// ChatResponse is the full JSON body of a non-streaming completion.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage"`
}

// Content returns the first choice's message content, or a ProtocolError
// when the expected field is absent.
func (r *ChatResponse) Content() (string, error) {
	if len(r.Choices) == 0 {
		return "", &ProtocolError{Reason: "no choices in response"}
	}
	if r.Choices[0].Message == nil {
		return "", &ProtocolError{Reason: "no message in first choice"}
	}
	return r.Choices[0].Message.Content, nil
}

// modelsResponse is the body of the models-listing endpoint.
type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}
