// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// Package cli parses the command line and implements the non-TUI
// interactive surfaces: a liner-backed REPL with slash commands and a
// one-shot send mode.
package cli
