// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// Package store persists conversations in a local SQLite database.
//
// The schema has two tables: chat_sessions and messages, linked by a
// foreign key with ON DELETE CASCADE so removing a session removes its
// transcript. Migrations are idempotent CREATE IF NOT EXISTS statements
// applied on every open. The driver is pure Go (modernc.org/sqlite), so
// the binary builds without cgo.
package store
