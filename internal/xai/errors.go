// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package xai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrTimeout matches any TimeoutError via errors.Is.
var ErrTimeout = errors.New("xai: timeout")

// UpstreamError is a non-success HTTP status from the provider. It carries
// the status code and raw response body for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("xai: upstream returned HTTP %d: %s", e.Status, e.Body)
}

// ProtocolError is a well-formed HTTP response that is missing an expected
// field, such as choices[0].message.content.
type ProtocolError struct {
	Reason string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return "xai: protocol error: " + e.Reason
}

// TimeoutError reports that the bounded wait for a call was exceeded.
// It is surfaced distinctly so callers can decide whether to retry;
// the client itself never retries.
type TimeoutError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return "xai: " + e.Op + " timed out"
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrTimeout).
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IsTimeout reports whether err is a timeout failure.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsUpstream reports whether err is a non-success provider status, and
// returns it for inspection.
func IsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// wrapTransportErr classifies a transport-level failure from the HTTP
// client. Deadline expiry and net timeouts become TimeoutError; context
// cancellation passes through so callers can tell an abort from a timeout.
func wrapTransportErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Op: op, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("xai: %s failed: %w", op, err)
}
