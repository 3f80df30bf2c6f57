// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package xai

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// STREAM DECODER
// =============================================================================

// Sentinel is the literal end-of-stream marker emitted by the provider on
// its own "data:" line. It carries no content; end-of-stream is driven by
// connection closure.
const Sentinel = "[DONE]"

// dataPrefix frames every payload-bearing line in the token stream.
const dataPrefix = "data: "

// Decoder incrementally parses a server-sent-event style token stream into
// text fragments. It is fed raw byte chunks exactly as they arrive from the
// connection, with no alignment guarantee: a chunk may hold zero, one or
// many complete lines, and a line may span chunks. The partial trailing
// line is carried over as raw bytes and completed by the next chunk, so
// chunk boundaries never change what is emitted overall.
//
// Decoders are single-use and not safe for concurrent use; feed chunks from
// one goroutine in arrival order.
type Decoder struct {
	carry []byte
}

// NewDecoder creates a stream decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// streamEvent is the subset of the event payload the decoder cares about.
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Feed decodes one chunk and returns the concatenation of every delta
// fragment found in it, in line order and then choices order. An empty
// return means the chunk produced no content (keep-alives, control lines,
// or a partial line awaiting its remainder) and nothing should be emitted.
//
// Invalid UTF-8 is replaced rather than rejected, and lines whose payload
// is not valid JSON are skipped silently: keep-alive and partial-line
// noise is expected from some deployments and must not kill the stream.
func (d *Decoder) Feed(chunk []byte) string {
	data := append(d.carry, chunk...)

	var out strings.Builder
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		out.WriteString(decodeLine(toValidUTF8(data[:idx])))
		data = data[idx+1:]
	}
	d.carry = data
	return out.String()
}

// Flush decodes whatever partial line remains after the connection closed
// without a trailing newline, and resets the decoder.
func (d *Decoder) Flush() string {
	line := toValidUTF8(d.carry)
	d.carry = nil
	return decodeLine(line)
}

// decodeLine extracts delta content from a single stream line. Lines that
// do not carry the data prefix, the [DONE] sentinel, and malformed payloads
// all yield nothing.
func decodeLine(line string) string {
	line = strings.TrimSuffix(line, "\r")

	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return ""
	}
	if payload == Sentinel {
		return ""
	}

	var event streamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return ""
	}

	var out strings.Builder
	for _, choice := range event.Choices {
		out.WriteString(choice.Delta.Content)
	}
	return out.String()
}

// toValidUTF8 decodes bytes as text, replacing invalid sequences with the
// Unicode replacement character instead of failing.
func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
