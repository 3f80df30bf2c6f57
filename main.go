// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// grokchat is a personal chat client for the xAI Grok API.
//
// Modes:
//
//	grokchat                      interactive terminal UI
//	grokchat -message "..."       one-shot: send and print the reply
//	grokchat -server              HTTP JSON API
//	grokchat -terminal=false      plain line-mode REPL
//
// Configuration comes from XAI_API_KEY and friends; see internal/config.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"grokchat/internal/chat"
	"grokchat/internal/cli"
	"grokchat/internal/config"
	"grokchat/internal/server"
	"grokchat/internal/store"
	"grokchat/internal/ui"
	"grokchat/internal/xai"
)

// Upstream request pacing. The xAI API tolerates far more than this;
// the cap just keeps a runaway client from hammering it.
const (
	apiRequestsPerSecond = 4
	apiRequestBurst      = 4
)

func main() {
	args, err := cli.Parse(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			fmt.Fprintf(os.Stderr, "grokchat: %v\n", ce)
			fmt.Fprintln(os.Stderr, "set XAI_API_KEY or add api_key to ~/.grokchat/config.toml")
			os.Exit(1)
		}
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Flags win over config for the server bind address.
	if args.Host != "" {
		cfg.Host = args.Host
	}
	if args.Port != 0 {
		cfg.Port = args.Port
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database %s: %v", cfg.DatabasePath, err)
	}
	defer st.Close()

	client := xai.NewClient(cfg.APIKey).
		WithDefaultModel(cfg.DefaultModel).
		WithRateLimit(apiRequestsPerSecond, apiRequestBurst)
	if !client.IsConfigured() {
		log.Fatal("no API key configured; set XAI_API_KEY")
	}
	svc := chat.NewService(st, client).
		WithSystemPrompt(args.SystemPrompt).
		WithMaxTokens(args.MaxTokens).
		WithTemperature(args.Temperature)

	switch {
	case args.Server:
		log.Printf("grokchat API listening on %s (db=%s, key=%s)",
			cfg.Addr(), cfg.DatabasePath, cfg.APIKeyMasked())
		if err := server.New(svc).Start(cfg.Addr()); err != nil {
			log.Fatalf("server: %v", err)
		}

	case args.Message != "":
		if err := cli.RunOneShot(svc, args.Session, args.Model, args.Message); err != nil {
			fmt.Fprintf(os.Stderr, "grokchat: %v\n", err)
			os.Exit(1)
		}

	case args.Terminal || isTTY():
		if err := ui.Run(svc, args.Session); err != nil {
			log.Fatalf("terminal ui: %v", err)
		}

	default:
		if err := cli.RunREPL(svc, args.Session); err != nil {
			log.Fatalf("repl: %v", err)
		}
	}
}

// isTTY reports whether stdout is a terminal; piping output selects the
// plain REPL over the full-screen UI.
func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
