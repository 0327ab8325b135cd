package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/passionateSandy2004/agenticShopping/pkg/events"
	"github.com/passionateSandy2004/agenticShopping/pkg/modeladapter/usage"
	"github.com/passionateSandy2004/agenticShopping/pkg/workflow"
)

// appState represents the dashboard state machine.
type appState int

const (
	stateIdle appState = iota
	stateRunning
	stateDone
)

// maxLogLines bounds the live log ring buffer.
const maxLogLines = 100

type eventMsg events.Event

type runDoneMsg struct {
	report     workflow.Report
	err        error
	usage      usage.TokenCount
	usageCalls int
}

type appModel struct {
	ctx   context.Context
	cfg   workflow.Config
	bus   *events.Bus
	sub   *events.Subscription
	input textinput.Model
	spin  spinner.Model

	state      appState
	showLogs   bool
	rawOpen    bool
	logs       []string
	report     workflow.Report
	runErr     error
	usage      usage.TokenCount
	usageCalls int
	cancelRun  context.CancelFunc
	width      int
}

func newApp(ctx context.Context, cfg workflow.Config) appModel {
	ti := textinput.New()
	ti.Placeholder = "What product are you looking for?"
	ti.SetValue("google pixel 8")
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	bus := events.NewBus()

	return appModel{
		ctx:      ctx,
		cfg:      cfg,
		bus:      bus,
		sub:      bus.Subscribe(maxLogLines),
		input:    ti,
		spin:     sp,
		state:    stateIdle,
		showLogs: true,
		width:    100,
	}
}

func (m appModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case eventMsg:
		m.logs = append(m.logs, formatEvent(events.Event(msg)))
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		return m, waitForEvent(m.sub)

	case runDoneMsg:
		m.state = stateDone
		m.report = msg.report
		m.runErr = msg.err
		m.usage = msg.usage
		m.usageCalls = msg.usageCalls
		m.cancelRun = nil
		m.input.Focus()
		return m, nil
	}

	if m.state != stateRunning {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancelRun != nil {
			m.cancelRun()
		}
		return m, tea.Quit

	case "esc":
		if m.state == stateRunning && m.cancelRun != nil {
			m.cancelRun()
			return m, nil
		}
		return m, tea.Quit

	case "ctrl+l":
		m.showLogs = !m.showLogs
		return m, nil

	case "tab":
		if m.state == stateDone {
			m.rawOpen = !m.rawOpen
		}
		return m, nil

	case "enter":
		if m.state == stateRunning {
			return m, nil
		}
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		return m.startRun(query)
	}

	if m.state != stateRunning {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

// startRun launches the workflow in a goroutine-backed command. Events flow
// through the bus subscription; the final report arrives as a runDoneMsg.
func (m appModel) startRun(query string) (tea.Model, tea.Cmd) {
	runCtx, cancel := context.WithCancel(m.ctx)
	m.cancelRun = cancel
	m.state = stateRunning
	m.logs = nil
	m.report = workflow.Report{}
	m.runErr = nil
	m.input.Blur()

	// A cancelled previous run may have left events in the subscription
	// buffer; drop them so they don't bleed into this run's log.
	drainEvents(m.sub)

	wf := workflow.New(m.cfg, m.bus)

	runCmd := func() tea.Msg {
		report, err := wf.Run(runCtx, query)
		total, calls := wf.TokenUsage()
		return runDoneMsg{report: report, err: err, usage: total, usageCalls: calls}
	}

	return m, tea.Batch(runCmd, m.spin.Tick, waitForEvent(m.sub))
}

// drainEvents empties the subscription buffer without blocking.
func drainEvents(sub *events.Subscription) {
	for {
		select {
		case <-sub.C:
		default:
			return
		}
	}
}

// waitForEvent reads one event from the subscription. The command re-arms
// itself from Update after each delivery.
func waitForEvent(sub *events.Subscription) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-sub.C
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

func formatEvent(e events.Event) string {
	ts := e.Timestamp.Format("15:04:05")
	switch e.Kind {
	case events.KindSectionStart:
		return fmt.Sprintf("[%s] %s — agent running", ts, e.Section)
	case events.KindSectionEnd:
		return fmt.Sprintf("[%s] %s — agent completed", ts, e.Section)
	case events.KindAttempt:
		return fmt.Sprintf("[%s] %s — attempt %d/%d: contacting model", ts, e.Section, e.Attempt, e.MaxAttempts)
	case events.KindRetryWait:
		return fmt.Sprintf("[%s] %s — request failed (%v), retrying in %s", ts, e.Section, e.Err, e.Wait)
	case events.KindToolCall:
		return fmt.Sprintf("[%s] %s — tool call %s: %s", ts, e.Section, e.Name,
			events.Snippet(e.Payload, events.PayloadSnippetWidth))
	case events.KindToolResult:
		return fmt.Sprintf("[%s] %s — tool result %s: %s", ts, e.Section, e.Name,
			events.Snippet(e.Payload, events.PayloadSnippetWidth))
	case events.KindAgentText:
		return fmt.Sprintf("[%s] %s — %s", ts, e.Section, events.Snippet(e.Text, events.TextSnippetWidth))
	case events.KindError:
		return fmt.Sprintf("[%s] %s — failed: %v", ts, e.Section, e.Err)
	}
	return fmt.Sprintf("[%s] %s — %s", ts, e.Section, e.Kind)
}
