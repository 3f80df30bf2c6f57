// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package export

import (
	"encoding/json"
	"errors"
	"time"

	"grokchat/internal/model"
)

// JSONExporter renders a conversation as a JSON document.
type JSONExporter struct{}

// FileExtension implements Exporter.
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType implements Exporter.
func (e *JSONExporter) MimeType() string { return "application/json" }

// jsonDocument is the exported JSON shape.
type jsonDocument struct {
	Session    *model.Session  `json:"session"`
	Messages   []model.Message `json:"messages"`
	ExportedAt time.Time       `json:"exported_at"`
}

// Export implements Exporter.
func (e *JSONExporter) Export(session *model.Session, messages []model.Message) ([]byte, error) {
	if session == nil {
		return nil, errors.New("session is nil")
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return json.MarshalIndent(jsonDocument{
		Session:    session,
		Messages:   messages,
		ExportedAt: time.Now().UTC(),
	}, "", "  ")
}
