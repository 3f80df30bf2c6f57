// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// STYLES
// =============================================================================

// Theme holds the lipgloss styles used across the chat view.
type Theme struct {
	Header    lipgloss.Style
	UserLabel lipgloss.Style
	GrokLabel lipgloss.Style
	SysLabel  lipgloss.Style
	ErrorText lipgloss.Style
	StatusBar lipgloss.Style
	Hint      lipgloss.Style
}

// DefaultTheme builds the default adaptive color theme.
func DefaultTheme() *Theme {
	return &Theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#1a1a2e", Dark: "#e0e0ff"}).
			Padding(0, 1),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#005f87", Dark: "#5fd7ff"}),
		GrokLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#87005f", Dark: "#ff5fd7"}),
		SysLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5f5f00", Dark: "#d7d75f"}),
		ErrorText: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#af0000", Dark: "#ff5f5f"}),
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#444444", Dark: "#aaaaaa"}).
			Padding(0, 1),
		Hint: lipgloss.NewStyle().
			Faint(true),
	}
}

// hasDarkBackground reports whether the terminal renders on a dark
// background, used to pick the markdown style.
func hasDarkBackground() bool {
	return termenv.HasDarkBackground()
}
