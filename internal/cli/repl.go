// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"grokchat/internal/chat"
	"grokchat/internal/config"
	"grokchat/internal/export"
	"grokchat/internal/model"
	"grokchat/internal/xai"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// Input wraps liner with persistent history, giving the plain REPL arrow
// key navigation and line editing.
type Input struct {
	line        *liner.State
	historyFile string
}

// NewInput creates the line reader and loads history from the config
// directory.
func NewInput() *Input {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &Input{line: line, historyFile: filepath.Join(dir, "history")}

	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// Read prompts for one line, appending non-empty input to history.
func (in *Input) Read(prompt string) (string, error) {
	input, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		in.line.AppendHistory(input)
	}
	return input, nil
}

// Close persists history and restores the terminal.
func (in *Input) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		// History can hold prompts; keep it owner-only.
		if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			in.line.WriteHistory(f)
			f.Close()
		}
	}
	in.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// RunREPL runs the plain line-oriented chat loop. It is the non-TUI
// interactive surface: prompts via liner, streamed replies printed as
// they arrive, slash commands for session management.
func RunREPL(svc *chat.Service, sessionID string) error {
	in := NewInput()
	defer in.Close()

	fmt.Println("grokchat - type /help for commands, /quit to exit")

	ctx := context.Background()
	for {
		input, err := in.Read("> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil { // Ctrl+D or closed stdin
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := handleCommand(ctx, svc, &sessionID, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		sessionID = sendAndPrint(ctx, svc, sessionID, input)
	}
}

// sendAndPrint streams one exchange to stdout and returns the session ID
// for the next turn.
func sendAndPrint(ctx context.Context, svc *chat.Service, sessionID, content string) string {
	ex, err := svc.SendStream(ctx, sessionID, "", content, func(fragment string) error {
		fmt.Print(fragment)
		return nil
	})
	fmt.Println()

	if err != nil {
		printExchangeError(err)
	}
	if ex != nil && ex.Session != nil {
		return ex.Session.ID
	}
	return sessionID
}

// printExchangeError renders upstream failures without killing the loop.
func printExchangeError(err error) {
	if upErr, ok := xai.IsUpstream(err); ok {
		fmt.Fprintf(os.Stderr, "error: upstream returned %d: %s\n", upErr.Status, upErr.Body)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

// handleCommand dispatches a slash command. Returns true to exit.
func handleCommand(ctx context.Context, svc *chat.Service, sessionID *string, input string) (bool, error) {
	cmd, rest, _ := strings.Cut(input, " ")
	switch cmd {
	case "/quit", "/q", "/exit":
		return true, nil

	case "/help", "/h":
		fmt.Println(`commands:
  /new              start a new session
  /sessions         list stored sessions
  /resume <id>      switch to a session
  /history          print the current transcript
  /models           list available models
  /export [format]  save the transcript (markdown or json)
  /quit             exit`)
		return false, nil

	case "/new":
		*sessionID = ""
		fmt.Println("starting a new session on the next message")
		return false, nil

	case "/sessions":
		sessions, err := svc.Store().ListSessions(ctx, 0, 0)
		if err != nil {
			return false, err
		}
		if len(sessions) == 0 {
			fmt.Println("no sessions yet")
			return false, nil
		}
		for _, s := range sessions {
			fmt.Println(FormatSessionLine(s))
		}
		return false, nil

	case "/resume":
		id := strings.TrimSpace(rest)
		if id == "" {
			return false, errors.New("usage: /resume <session-id>")
		}
		if _, err := svc.Store().GetSession(ctx, id); err != nil {
			return false, err
		}
		*sessionID = id
		fmt.Println("resumed", id)
		return false, nil

	case "/history":
		if *sessionID == "" {
			fmt.Println("no active session")
			return false, nil
		}
		messages, err := svc.History(ctx, *sessionID)
		if err != nil {
			return false, err
		}
		for _, msg := range messages {
			fmt.Printf("%s: %s\n", msg.Role.DisplayName(), msg.Content)
		}
		return false, nil

	case "/models":
		models, err := svc.Client().ListModels(ctx)
		if err != nil {
			return false, err
		}
		for _, m := range models {
			fmt.Println(m)
		}
		return false, nil

	case "/export":
		if *sessionID == "" {
			fmt.Println("no active session")
			return false, nil
		}
		exporter, err := export.ForFormat(strings.TrimSpace(rest))
		if err != nil {
			return false, err
		}
		session, err := svc.Store().GetSession(ctx, *sessionID)
		if err != nil {
			return false, err
		}
		messages, err := svc.History(ctx, *sessionID)
		if err != nil {
			return false, err
		}
		path, err := export.WriteFile(".", session, messages, exporter)
		if err != nil {
			return false, err
		}
		fmt.Println("exported to", path)
		return false, nil
	}
	return false, fmt.Errorf("unknown command %q, try /help", cmd)
}

// RunOneShot sends a single message and prints the reply. Used for
// -message mode; the exchange persists like any other.
func RunOneShot(svc *chat.Service, sessionID, modelName, message string) error {
	ex, err := svc.Send(context.Background(), sessionID, modelName, message)
	if err != nil {
		return err
	}
	if ex.AssistantMessage == nil {
		return errors.New("no reply received")
	}
	fmt.Println(ex.AssistantMessage.Content)
	return nil
}

// FormatSessionLine renders one session for listings.
func FormatSessionLine(s model.Session) string {
	title := "(untitled)"
	if s.Title != nil {
		title = *s.Title
	}
	return fmt.Sprintf("%s  %s  %s", s.ID, s.UpdatedAt.Local().Format("2006-01-02 15:04"), title)
}
