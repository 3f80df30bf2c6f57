// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"grokchat/internal/chat"
	"grokchat/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is the chat view's input state.
type State int

const (
	StateReady     State = iota // Accepting input
	StateStreaming              // Receiving a reply
)

// =============================================================================
// MESSAGES
// =============================================================================

// streamEventMsg carries one decoded fragment from the reply stream.
type streamEventMsg struct {
	fragment string
}

// streamDoneMsg terminates a stream. Err is set when the exchange failed;
// the user message is already persisted either way.
type streamDoneMsg struct {
	exchange *chat.Exchange
	err      error
}

// historyLoadedMsg delivers the resumed session's transcript.
type historyLoadedMsg struct {
	session  *model.Session
	messages []model.Message
	err      error
}

// modelsLoadedMsg delivers the available model list.
type modelsLoadedMsg struct {
	models []string
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	svc   *chat.Service
	theme *Theme

	state   State
	session *model.Session
	// resumeID is the session to load on startup; empty starts fresh.
	resumeID string

	messages  []model.Message
	streaming strings.Builder
	streamCh  chan tea.Msg
	cancel    context.CancelFunc
	lastErr   string

	models   []string
	modelIdx int

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	render   *renderer

	width  int
	height int
	ready  bool
}

// New creates the chat view. resumeID may be empty to start a new
// session on the first message.
func New(svc *chat.Service, resumeID string) *Model {
	input := textarea.New()
	input.Placeholder = "Ask Grok anything..."
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		svc:      svc,
		theme:    DefaultTheme(),
		resumeID: resumeID,
		input:    input,
		spinner:  sp,
	}
}

// Run starts the Bubble Tea program and blocks until exit.
func Run(svc *chat.Service, resumeID string) error {
	p := tea.NewProgram(New(svc, resumeID), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init loads the resumed session and the model list.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.loadModelsCmd()}
	if m.resumeID != "" {
		cmds = append(cmds, m.loadHistoryCmd())
	}
	return tea.Batch(cmds...)
}

// loadHistoryCmd fetches the resumed session and its transcript.
func (m *Model) loadHistoryCmd() tea.Cmd {
	svc, id := m.svc, m.resumeID
	return func() tea.Msg {
		ctx := context.Background()
		session, err := svc.Store().GetSession(ctx, id)
		if err != nil {
			return historyLoadedMsg{err: err}
		}
		messages, err := svc.History(ctx, id)
		if err != nil {
			return historyLoadedMsg{err: err}
		}
		return historyLoadedMsg{session: session, messages: messages}
	}
}

// loadModelsCmd fetches the selectable model list. Failure is silent; the
// default model still works.
func (m *Model) loadModelsCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		models, err := svc.Client().ListModels(context.Background())
		if err != nil {
			return modelsLoadedMsg{}
		}
		return modelsLoadedMsg{models: models}
	}
}

// startStream kicks off one streaming exchange. Fragments and the
// terminal result arrive as messages through streamCh.
func (m *Model) startStream(content string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	ch := make(chan tea.Msg, 32)
	m.streamCh = ch

	svc := m.svc
	sessionID := ""
	if m.session != nil {
		sessionID = m.session.ID
	}
	modelName := m.selectedModel()

	go func() {
		defer close(ch)
		ex, err := svc.SendStream(ctx, sessionID, modelName, content, func(fragment string) error {
			select {
			case ch <- streamEventMsg{fragment: fragment}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		ch <- streamDoneMsg{exchange: ex, err: err}
	}()

	return m.listenStream()
}

// listenStream waits for the next stream message. It re-arms itself from
// Update on every fragment.
func (m *Model) listenStream() tea.Cmd {
	ch := m.streamCh
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// selectedModel returns the model chosen in the picker, or empty to use
// the session/default model.
func (m *Model) selectedModel() string {
	if len(m.models) == 0 || m.modelIdx == 0 {
		return ""
	}
	return m.models[m.modelIdx-1]
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case historyLoadedMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		} else {
			m.session = msg.session
			m.messages = msg.messages
		}
		m.refreshViewport(true)
		return m, nil

	case modelsLoadedMsg:
		m.models = msg.models
		return m, nil

	case streamEventMsg:
		m.streaming.WriteString(msg.fragment)
		m.refreshViewport(true)
		return m, m.listenStream()

	case streamDoneMsg:
		return m.finishStream(msg)

	case spinner.TickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey routes key presses by state.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case "esc":
		if m.state == StateStreaming && m.cancel != nil {
			m.cancel()
			return m, nil
		}
		return m, tea.Quit

	case "ctrl+p":
		if len(m.models) > 0 && m.state == StateReady {
			m.modelIdx = (m.modelIdx + 1) % (len(m.models) + 1)
		}
		return m, nil

	case "enter":
		if m.state != StateReady {
			return m, nil
		}
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			return m, nil
		}
		m.input.Reset()
		m.lastErr = ""
		m.state = StateStreaming
		m.streaming.Reset()

		// Echo the user message immediately; the persisted copy replaces
		// it when the exchange finishes.
		m.messages = append(m.messages, *model.NewUserMessage("", content))
		m.refreshViewport(true)
		return m, tea.Batch(m.startStream(content), m.spinner.Tick)
	}

	if m.state == StateReady {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// finishStream applies the terminal stream event.
func (m *Model) finishStream(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady
	m.cancel = nil
	m.streamCh = nil
	m.streaming.Reset()

	if msg.err != nil {
		m.lastErr = msg.err.Error()
	}
	if msg.exchange != nil {
		m.session = msg.exchange.Session
		// Reload from storage so the transcript reflects exactly what
		// was persisted.
		if messages, err := m.svc.History(context.Background(), m.session.ID); err == nil {
			m.messages = messages
		}
	}
	m.refreshViewport(true)
	return m, nil
}

// resize lays out the viewport and input for a new terminal size.
func (m *Model) resize(msg tea.WindowSizeMsg) *Model {
	m.width = msg.Width
	m.height = msg.Height

	inputHeight := 3
	chrome := 2 // header + status
	vpHeight := msg.Height - inputHeight - chrome
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width)
	m.render = newRenderer(m.theme, msg.Width)
	m.refreshViewport(false)
	return m
}

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport(stick bool) {
	if !m.ready || m.render == nil {
		return
	}
	m.viewport.SetContent(m.render.transcript(m.messages, m.streaming.String(), m.lastErr))
	if stick {
		m.viewport.GotoBottom()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	title := "new conversation"
	if m.session != nil {
		if m.session.Title != nil {
			title = *m.session.Title
		} else {
			title = m.session.ID
		}
	}
	header := m.theme.Header.Render(truncate("grokchat - "+title, m.width-2))

	status := m.statusLine()

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, m.viewport.View(), m.input.View(), status)
}

// statusLine renders the bottom bar.
func (m *Model) statusLine() string {
	modelName := m.svc.Client().DefaultModel()
	if m.session != nil {
		modelName = m.session.Model
	}
	if picked := m.selectedModel(); picked != "" {
		modelName = picked + " (next)"
	}

	var left string
	if m.state == StateStreaming {
		left = m.spinner.View() + " thinking..."
	} else {
		left = "model: " + modelName
	}
	hint := m.theme.Hint.Render("enter send · ctrl+p model · esc quit")
	return m.theme.StatusBar.Render(truncate(left+"  "+hint, m.width-2))
}
