// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// Package chat assembles stored transcripts into completion requests and
// records the results.
//
// Sending is two-phase without rollback: the user message is persisted
// before the upstream call, and the assistant reply only after a
// successful one. Both the terminal and HTTP surfaces drive the same
// Service.
package chat
