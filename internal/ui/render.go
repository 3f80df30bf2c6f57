// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"grokchat/internal/model"
)

// renderer formats transcript entries for the viewport.
type renderer struct {
	theme    *Theme
	width    int
	markdown *glamour.TermRenderer
}

// newRenderer builds a renderer for the given content width. Markdown
// rendering degrades to plain text when glamour cannot initialize (dumb
// terminals).
func newRenderer(theme *Theme, width int) *renderer {
	r := &renderer{theme: theme, width: width}

	style := glamour.WithStandardStyle("light")
	if hasDarkBackground() {
		style = glamour.WithStandardStyle("dark")
	}
	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err == nil {
		r.markdown = md
	}
	return r
}

// label styles the speaker line for a role.
func (r *renderer) label(role model.Role) string {
	name := role.DisplayName()
	switch role {
	case model.RoleAssistant:
		return r.theme.GrokLabel.Render(name)
	case model.RoleSystem:
		return r.theme.SysLabel.Render(name)
	default:
		return r.theme.UserLabel.Render(name)
	}
}

// message renders one transcript entry.
func (r *renderer) message(msg model.Message) string {
	body := msg.Content
	if msg.Role == model.RoleAssistant && r.markdown != nil {
		if rendered, err := r.markdown.Render(msg.Content); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	return r.label(msg.Role) + "\n" + body + "\n"
}

// transcript renders the full conversation, with the in-flight assistant
// text (if any) appended raw so partial markdown never flickers.
func (r *renderer) transcript(messages []model.Message, streaming string, streamErr string) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(r.message(msg))
		b.WriteString("\n")
	}
	if streaming != "" {
		b.WriteString(r.label(model.RoleAssistant))
		b.WriteString("\n")
		b.WriteString(streaming)
		b.WriteString("\n")
	}
	if streamErr != "" {
		b.WriteString(r.theme.ErrorText.Render("error: " + streamErr))
		b.WriteString("\n")
	}
	return b.String()
}

// truncate shortens s to fit width terminal cells.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
