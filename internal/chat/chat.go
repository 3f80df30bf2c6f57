// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package chat

import (
	"context"
	"fmt"

	"grokchat/internal/model"
	"grokchat/internal/store"
	"grokchat/internal/xai"
)

// DefaultSystemPrompt is prepended to every exchange unless overridden.
const DefaultSystemPrompt = "You are Grok, a helpful and maximally truthful AI built by xAI, not based on any other companies and their models."

// titleRunes caps the auto-generated session title length.
const titleRunes = 50

// Defaults applied to completion requests.
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
)

// Exchange is the result of one send: the session the message landed in
// and both persisted transcript entries. AssistantMessage is nil when the
// upstream call failed after the user message was already saved.
type Exchange struct {
	Session          *model.Session
	UserMessage      *model.Message
	AssistantMessage *model.Message
}

// Service couples the transcript store with the completion client. One
// exchange is two phases: persist the user's message, then call upstream
// and persist the reply. A failed second phase keeps the saved user
// message; there is no rollback, so the user's text survives transient
// upstream failures and the next send resumes the conversation.
type Service struct {
	store        *store.Store
	client       *xai.Client
	systemPrompt string
	maxTokens    int
	temperature  float64
}

// NewService creates a chat service with default request parameters.
func NewService(st *store.Store, client *xai.Client) *Service {
	return &Service{
		store:        st,
		client:       client,
		systemPrompt: DefaultSystemPrompt,
		maxTokens:    DefaultMaxTokens,
		temperature:  DefaultTemperature,
	}
}

// WithSystemPrompt overrides the system prompt. An empty prompt disables
// the system message entirely.
func (s *Service) WithSystemPrompt(prompt string) *Service {
	s.systemPrompt = prompt
	return s
}

// WithMaxTokens sets the completion token cap sent upstream.
func (s *Service) WithMaxTokens(n int) *Service {
	s.maxTokens = n
	return s
}

// WithTemperature sets the sampling temperature sent upstream.
func (s *Service) WithTemperature(t float64) *Service {
	s.temperature = t
	return s
}

// BuildMessages projects a stored transcript into the wire message list:
// the system prompt first (when non-empty), then history in order, then
// the new user content. It is a pure projection; nothing is persisted.
func BuildMessages(systemPrompt string, history []model.Message, userContent string) []xai.ChatMessage {
	messages := make([]xai.ChatMessage, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, xai.NewSystemMessage(systemPrompt))
	}
	for _, msg := range history {
		messages = append(messages, xai.ChatMessage{Role: msg.Role.String(), Content: msg.Content})
	}
	messages = append(messages, xai.NewUserMessage(userContent))
	return messages
}

// resolveSession loads the target session, creating a fresh one with the
// given model when sessionID is empty.
func (s *Service) resolveSession(ctx context.Context, sessionID, modelName string) (*model.Session, error) {
	if modelName == "" {
		modelName = s.client.DefaultModel()
	}
	if sessionID == "" {
		session := model.NewSession(modelName, nil)
		if err := s.store.CreateSession(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}
	return s.store.GetSession(ctx, sessionID)
}

// deriveTitle builds a session title from the first user message.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleRunes {
		return content
	}
	return string(runes[:titleRunes]) + "..."
}

// ensureTitle fills in the session title from the first user message.
// Failures here are not fatal to the exchange.
func (s *Service) ensureTitle(ctx context.Context, session *model.Session, content string) {
	if session.Title != nil {
		return
	}
	title := deriveTitle(content)
	session.Title = &title
	session.Touch()
	_ = s.store.UpdateSession(ctx, session)
}

// beginExchange runs phase one: resolve the session, persist the user
// message, and assemble the upstream request from stored history.
func (s *Service) beginExchange(ctx context.Context, sessionID, modelName, content string) (*Exchange, xai.ChatRequest, error) {
	session, err := s.resolveSession(ctx, sessionID, modelName)
	if err != nil {
		return nil, xai.ChatRequest{}, fmt.Errorf("resolve session: %w", err)
	}

	history, err := s.store.GetMessages(ctx, session.ID)
	if err != nil {
		return nil, xai.ChatRequest{}, err
	}

	userMsg := model.NewUserMessage(session.ID, content)
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, xai.ChatRequest{}, err
	}
	s.ensureTitle(ctx, session, content)

	maxTokens := s.maxTokens
	temperature := s.temperature
	req := xai.ChatRequest{
		Model:       session.Model,
		Messages:    BuildMessages(s.systemPrompt, history, content),
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}
	return &Exchange{Session: session, UserMessage: userMsg}, req, nil
}

// finishExchange runs phase two's bookkeeping: persist the assistant
// reply with its attribution.
func (s *Service) finishExchange(ctx context.Context, ex *Exchange, content string, tokens *int) error {
	assistantMsg := model.NewAssistantMessage(ex.Session.ID, content, &ex.Session.Model)
	assistantMsg.TokensUsed = tokens
	if err := s.store.CreateMessage(ctx, assistantMsg); err != nil {
		return err
	}
	ex.AssistantMessage = assistantMsg
	return nil
}

// Send performs one blocking exchange. An empty sessionID starts a new
// session; modelName overrides the session's model for new sessions only.
// When the upstream call fails the user message stays persisted and the
// returned Exchange carries it with a nil AssistantMessage.
func (s *Service) Send(ctx context.Context, sessionID, modelName, content string) (*Exchange, error) {
	ex, req, err := s.beginExchange(ctx, sessionID, modelName, content)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Chat(ctx, req)
	if err != nil {
		return ex, err
	}
	text, err := resp.Content()
	if err != nil {
		return ex, err
	}

	var tokens *int
	if resp.Usage != nil {
		n := resp.Usage.TotalTokens
		tokens = &n
	}
	if err := s.finishExchange(ctx, ex, text, tokens); err != nil {
		return ex, err
	}
	return ex, nil
}

// SendStream performs one streaming exchange, invoking callback per
// fragment as it arrives. The assembled reply is persisted once the
// stream completes; a stream that fails midway persists nothing for the
// assistant, and the user message stays.
func (s *Service) SendStream(ctx context.Context, sessionID, modelName, content string, callback xai.StreamCallback) (*Exchange, error) {
	ex, req, err := s.beginExchange(ctx, sessionID, modelName, content)
	if err != nil {
		return nil, err
	}

	full, err := s.client.ChatStream(ctx, req, callback)
	if err != nil {
		return ex, err
	}

	if err := s.finishExchange(ctx, ex, full, nil); err != nil {
		return ex, err
	}
	return ex, nil
}

// History returns a session's stored transcript in order.
func (s *Service) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	return s.store.GetMessages(ctx, sessionID)
}

// Store exposes the underlying store for session management surfaces.
func (s *Service) Store() *store.Store {
	return s.store
}

// Client exposes the underlying API client.
func (s *Service) Client() *xai.Client {
	return s.client
}
