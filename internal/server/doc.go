// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// Package server exposes the chat service as a JSON HTTP API.
//
// Every response body is wrapped in the ApiResponse envelope. Upstream
// completion failures map to 502, timeouts to 504, missing sessions to
// 404; storage failures stay 500. The server binds to the configured
// address and drains in-flight requests on SIGINT or SIGTERM.
package server
