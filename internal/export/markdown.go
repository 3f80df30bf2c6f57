// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"grokchat/internal/model"
)

// MarkdownExporter renders a conversation as a Markdown document with
// YAML frontmatter.
type MarkdownExporter struct{}

// FileExtension implements Exporter.
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType implements Exporter.
func (e *MarkdownExporter) MimeType() string { return "text/markdown; charset=utf-8" }

// Export implements Exporter.
func (e *MarkdownExporter) Export(session *model.Session, messages []model.Message) ([]byte, error) {
	if session == nil {
		return nil, errors.New("session is nil")
	}

	title := "Conversation"
	if session.Title != nil && *session.Title != "" {
		title = *session.Title
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %q\n", title)
	fmt.Fprintf(&sb, "session: %s\n", session.ID)
	fmt.Fprintf(&sb, "model: %s\n", session.Model)
	fmt.Fprintf(&sb, "created: %s\n", session.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "updated: %s\n", session.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "messages: %d\n", len(messages))
	fmt.Fprintf(&sb, "exported: %s\n", time.Now().UTC().Format(time.RFC3339))
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", title)

	for _, msg := range messages {
		fmt.Fprintf(&sb, "## %s - %s\n\n", msg.Role.DisplayName(), msg.Timestamp.Format("2006-01-02 15:04:05"))
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}

	return []byte(sb.String()), nil
}
