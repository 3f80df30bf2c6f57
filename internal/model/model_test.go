// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole_RoundTrip(t *testing.T) {
	for _, role := range []Role{RoleUser, RoleAssistant, RoleSystem} {
		assert.Equal(t, role, ParseRole(role.String()))
	}
}

func TestParseRole_UnknownFallsBackToUser(t *testing.T) {
	tests := []string{"", "tool", "function", "USER", "Assistant", "robot"}
	for _, s := range tests {
		assert.Equal(t, RoleUser, ParseRole(s), "role %q should decode as user", s)
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.True(t, RoleSystem.Valid())
	assert.False(t, Role("tool").Valid())
	assert.False(t, Role("").Valid())
}

func TestNewSession(t *testing.T) {
	s := NewSession("grok-4-0709", nil)

	require.NotEmpty(t, s.ID)
	assert.Equal(t, "grok-4-0709", s.Model)
	assert.Nil(t, s.Title)
	assert.False(t, s.CreatedAt.IsZero())
	assert.False(t, s.UpdatedAt.Before(s.CreatedAt))
}

func TestNewSession_UniqueIDs(t *testing.T) {
	a := NewSession("grok-3", nil)
	b := NewSession("grok-3", nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSession_Touch(t *testing.T) {
	s := NewSession("grok-4-0709", nil)
	created := s.CreatedAt
	prev := s.UpdatedAt

	time.Sleep(time.Millisecond)
	s.Touch()

	assert.Equal(t, created, s.CreatedAt)
	assert.True(t, s.UpdatedAt.After(prev) || s.UpdatedAt.Equal(prev))
	assert.False(t, s.UpdatedAt.Before(s.CreatedAt))
}

func TestNewUserMessage(t *testing.T) {
	m := NewUserMessage("session-123", "Hello, Grok!")

	assert.Equal(t, "session-123", m.SessionID)
	assert.Equal(t, RoleUser, m.Role)
	assert.Equal(t, "Hello, Grok!", m.Content)
	assert.Nil(t, m.Model)
	assert.Nil(t, m.TokensUsed)
	assert.False(t, m.Timestamp.After(time.Now().UTC()))
}

func TestNewAssistantMessage(t *testing.T) {
	modelName := "grok-4-0709"
	m := NewAssistantMessage("session-123", "Hi there", &modelName)

	assert.Equal(t, RoleAssistant, m.Role)
	require.NotNil(t, m.Model)
	assert.Equal(t, modelName, *m.Model)
}

func TestMessage_Preview(t *testing.T) {
	m := NewUserMessage("s", "a somewhat longer message body")
	assert.Equal(t, "a somewh...", m.Preview(11))
	assert.Equal(t, "a somewhat longer message body", m.Preview(100))

	// Rune-safe truncation.
	m = NewUserMessage("s", "héllo wörld, this is long enough")
	assert.Equal(t, "héllo...", m.Preview(8))
}
