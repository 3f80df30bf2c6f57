// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grokchat/internal/model"
)

func sampleConversation() (*model.Session, []model.Message) {
	title := "Why is the sky blue?"
	session := model.NewSession("grok-4-0709", &title)
	messages := []model.Message{
		*model.NewUserMessage(session.ID, "Why is the sky blue?"),
		*model.NewAssistantMessage(session.ID, "Rayleigh scattering.", nil),
	}
	return session, messages
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"markdown", "md", ""} {
		e, err := ForFormat(format)
		require.NoError(t, err)
		assert.Equal(t, ".md", e.FileExtension())
	}

	e, err := ForFormat("json")
	require.NoError(t, err)
	assert.Equal(t, ".json", e.FileExtension())

	_, err = ForFormat("pdf")
	assert.Error(t, err)
}

func TestMarkdownExport(t *testing.T) {
	session, messages := sampleConversation()

	data, err := (&MarkdownExporter{}).Export(session, messages)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.Contains(t, out, "session: "+session.ID)
	assert.Contains(t, out, "model: grok-4-0709")
	assert.Contains(t, out, "# Why is the sky blue?")
	assert.Contains(t, out, "## You - "+messages[0].Timestamp.Format("2006-01-02 15:04:05"))
	assert.Contains(t, out, "## Grok - "+messages[1].Timestamp.Format("2006-01-02 15:04:05"))
	assert.Contains(t, out, "Rayleigh scattering.")

	// The document stays plain ASCII so it renders the same everywhere.
	for _, r := range out {
		require.Less(t, r, rune(128))
	}
}

func TestMarkdownExportNilSession(t *testing.T) {
	_, err := (&MarkdownExporter{}).Export(nil, nil)
	assert.Error(t, err)
}

func TestJSONExportRoundTrip(t *testing.T) {
	session, messages := sampleConversation()

	data, err := (&JSONExporter{}).Export(session, messages)
	require.NoError(t, err)

	var doc struct {
		Session  model.Session   `json:"session"`
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, session.ID, doc.Session.ID)
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, model.RoleAssistant, doc.Messages[1].Role)
}

func TestWriteFile(t *testing.T) {
	session, messages := sampleConversation()
	dir := t.TempDir()

	path, err := WriteFile(dir, session, messages, &MarkdownExporter{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".md"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Rayleigh scattering.")
}
