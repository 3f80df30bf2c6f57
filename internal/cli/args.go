// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"flag"

	"grokchat/internal/chat"
)

// Args is the parsed command line.
type Args struct {
	// Mode selection. Terminal is the default when nothing else is set.
	Terminal bool
	Server   bool

	// One-shot mode: send Message and print the reply.
	Message string

	// Session to resume, by ID. Empty starts a new session.
	Session string

	// Request parameters.
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64

	// Server bind overrides.
	Host string
	Port int
}

// Parse reads flags from argv (without the program name). Defaults for
// host and port are zero values here; the caller overlays them onto the
// loaded configuration so flags beat config only when given.
func Parse(argv []string) (*Args, error) {
	args := &Args{}

	fs := flag.NewFlagSet("grokchat", flag.ContinueOnError)
	fs.BoolVar(&args.Terminal, "terminal", false, "run the interactive terminal UI")
	fs.BoolVar(&args.Server, "server", false, "run the HTTP API server")
	fs.StringVar(&args.Message, "message", "", "send a single message and print the reply")
	fs.StringVar(&args.Session, "session", "", "session ID to resume")
	fs.StringVar(&args.Model, "model", "", "model to use for new sessions")
	fs.StringVar(&args.SystemPrompt, "system", chat.DefaultSystemPrompt, "system prompt")
	fs.IntVar(&args.MaxTokens, "max-tokens", chat.DefaultMaxTokens, "completion token cap")
	fs.Float64Var(&args.Temperature, "temperature", chat.DefaultTemperature, "sampling temperature")
	fs.StringVar(&args.Host, "host", "", "HTTP server bind host (overrides config)")
	fs.IntVar(&args.Port, "port", 0, "HTTP server bind port (overrides config)")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	return args, nil
}
