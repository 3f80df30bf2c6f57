// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// Package export renders stored conversations to portable formats.
//
// Two formats are supported: Markdown with a YAML frontmatter header, and
// JSON carrying the session and transcript verbatim.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"grokchat/internal/model"
)

// Exporter converts one conversation to a target format.
type Exporter interface {
	// Export renders the session and its transcript.
	Export(session *model.Session, messages []model.Message) ([]byte, error)

	// FileExtension returns the extension for the format (e.g. ".md").
	FileExtension() string

	// MimeType returns the MIME type for HTTP delivery.
	MimeType() string
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string) (Exporter, error) {
	switch format {
	case "markdown", "md", "":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// Filename builds a timestamped export file name for a session.
func Filename(session *model.Session, e Exporter) string {
	stamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("grokchat-%s-%s%s", shortID(session.ID), stamp, e.FileExtension())
}

// WriteFile exports the conversation into dir and returns the written
// path.
func WriteFile(dir string, session *model.Session, messages []model.Message, e Exporter) (string, error) {
	data, err := e.Export(session, messages)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, Filename(session, e))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// shortID truncates a session UUID for file names.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
