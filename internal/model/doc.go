// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// Package model contains the persistent data structures shared across the
// application: Session, Message and Role.
//
// Sessions own their messages; deleting a session cascades to its messages
// at the storage layer. Role is a closed enumeration, and any unknown role
// text decodes to RoleUser at the deserialization boundary (ParseRole)
// rather than failing.
package model
