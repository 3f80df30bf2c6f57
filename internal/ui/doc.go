// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// Package ui implements the interactive terminal chat view.
//
// It is a Bubble Tea program: a viewport transcript over a textarea
// input, with reply tokens delivered as messages through a channel read
// by a self-rearming command. Assistant messages render through glamour
// once persisted; in-flight text stays raw so partial markdown never
// flickers. Errors appear inline in the transcript instead of
// terminating the program.
package ui
