// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies who authored a message.
type Role string

// The closed set of message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the wire form of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// DisplayName returns the label shown for this role in transcripts.
func (r Role) DisplayName() string {
	switch r {
	case RoleAssistant:
		return "Grok"
	case RoleSystem:
		return "System"
	default:
		return "You"
	}
}

// ParseRole decodes stored or received role text. Unknown values decode to
// RoleUser so that rows written by other versions never fail to load.
func ParseRole(s string) Role {
	r := Role(s)
	if r.Valid() {
		return r
	}
	return RoleUser
}

// =============================================================================
// SESSIONS
// =============================================================================

// Session is one conversation thread. Title is nil until the first user
// message supplies one.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Model     string    `json:"model"`
	Title     *string   `json:"title"`
}

// NewSession creates a session with a fresh UUID and both timestamps set
// to now.
func NewSession(model string, title *string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Model:     model,
		Title:     title,
	}
}

// Touch advances UpdatedAt to now. CreatedAt never changes.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// =============================================================================
// MESSAGES
// =============================================================================

// Message is a single transcript entry. ID is assigned by storage on
// insert. Model and TokensUsed are recorded only for assistant messages,
// where the upstream reports them.
type Message struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Model      *string   `json:"model"`
	TokensUsed *int      `json:"tokens_used"`
}

// NewMessage creates a message with the timestamp set to now.
func NewMessage(sessionID string, role Role, content string) *Message {
	return &Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(sessionID, content string) *Message {
	return NewMessage(sessionID, RoleUser, content)
}

// NewAssistantMessage creates an assistant message attributed to the model
// that produced it.
func NewAssistantMessage(sessionID, content string, model *string) *Message {
	m := NewMessage(sessionID, RoleAssistant, content)
	m.Model = model
	return m
}

// NewSystemMessage creates a system message.
func NewSystemMessage(sessionID, content string) *Message {
	return NewMessage(sessionID, RoleSystem, content)
}

// Preview returns the content truncated to at most maxLen runes, with a
// trailing ellipsis when truncated. Truncation is rune-safe.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
