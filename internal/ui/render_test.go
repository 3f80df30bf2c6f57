// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"grokchat/internal/model"
)

func TestTranscriptIncludesAllEntries(t *testing.T) {
	r := newRenderer(DefaultTheme(), 80)

	messages := []model.Message{
		*model.NewUserMessage("s", "what is Go?"),
		*model.NewAssistantMessage("s", "A programming language.", nil),
	}

	out := r.transcript(messages, "", "")
	assert.Contains(t, out, "what is Go?")
	assert.Contains(t, out, "programming language")
}

func TestTranscriptStreamingTailIsRaw(t *testing.T) {
	r := newRenderer(DefaultTheme(), 80)

	out := r.transcript(nil, "partial **bold", "")
	// In-flight text must appear verbatim, not markdown-rendered.
	assert.Contains(t, out, "partial **bold")
}

func TestTranscriptErrorInline(t *testing.T) {
	r := newRenderer(DefaultTheme(), 80)

	out := r.transcript(nil, "", "upstream returned 502")
	assert.Contains(t, out, "upstream returned 502")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	got := truncate(strings.Repeat("x", 50), 10)
	assert.LessOrEqual(t, len([]rune(got)), 10)
	assert.True(t, strings.HasSuffix(got, "…"))
}
