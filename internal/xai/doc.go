// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// Package xai implements the HTTP client for the xAI chat completions API.
//
// The package covers the two request shapes the API offers: a blocking
// completion (Chat) and a token stream (ChatStream / ChatStreamChan)
// decoded by Decoder as raw chunks arrive, with no alignment assumptions
// about chunk boundaries. Failures are reported through three typed
// errors: UpstreamError for non-2xx responses, ProtocolError for
// well-formed HTTP carrying an unexpected payload, and TimeoutError for
// deadline and network timeouts. The client never retries; callers own
// that decision.
package xai
