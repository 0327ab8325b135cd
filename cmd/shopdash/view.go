package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/passionateSandy2004/agenticShopping/pkg/agenttask"
	"github.com/passionateSandy2004/agenticShopping/pkg/workflow"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	logStyle     = lipgloss.NewStyle().Faint(true)
)

func (m appModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Shopping Agent — Product, Price, and Buzz"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: run · ctrl+l: toggle live logs · tab: raw output · esc: cancel/quit"))
	b.WriteString("\n\n")

	switch m.state {
	case stateRunning:
		b.WriteString(m.spin.View())
		b.WriteString(" Running multi-agent analysis...\n")
		if m.showLogs {
			b.WriteString("\n")
			b.WriteString(m.viewLogs())
		}

	case stateDone:
		b.WriteString(m.viewReport())
		if m.showLogs && len(m.logs) > 0 {
			b.WriteString("\n")
			b.WriteString(m.viewLogs())
		}
	}

	return b.String()
}

func (m appModel) viewLogs() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Live tool logs"))
	b.WriteString("\n")

	// Show the tail that fits a screenful.
	logs := m.logs
	if len(logs) > 20 {
		logs = logs[len(logs)-20:]
	}
	for _, line := range logs {
		b.WriteString(logStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m appModel) viewReport() string {
	var b strings.Builder

	if m.runErr != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("Run failed: %v", m.runErr)))
		b.WriteString("\n\n")
	}

	for i, section := range []string{agenttask.SectionProduct, agenttask.SectionPrice, agenttask.SectionNews} {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%d) %s", i+1, section)))
		b.WriteString("\n")

		text, ok := m.report.Get(section)
		switch {
		case !ok && m.runErr != nil:
			b.WriteString(errStyle.Render("Not available — the run aborted before this section."))
			b.WriteString("\n\n")
		case text == "":
			b.WriteString("No data.\n\n")
		default:
			b.WriteString(m.renderMarkdown(text))
			b.WriteString("\n")
		}
	}

	if m.rawOpen {
		b.WriteString(sectionStyle.Render("Raw outputs"))
		b.WriteString("\n")
		b.WriteString(rawReport(m.report))
	} else if m.runErr == nil {
		b.WriteString(helpStyle.Render("tab: show raw outputs"))
		b.WriteString("\n")
	}

	if m.usageCalls > 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf(
			"model usage: %d calls, %d input + %d output tokens",
			m.usageCalls, m.usage.InputTokens, m.usage.OutputTokens)))
		b.WriteString("\n")
	}

	return b.String()
}

// renderMarkdown converts markdown to terminal-formatted output, falling
// back to the raw text when the renderer cannot be built.
func (m appModel) renderMarkdown(text string) string {
	width := m.width
	if width <= 0 {
		width = 100
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text + "\n"
	}

	out, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func rawReport(r workflow.Report) string {
	var b strings.Builder
	for _, s := range r.Sections {
		b.WriteString(fmt.Sprintf("--- %s ---\n%s\n", s.Section, s.Text))
	}
	return b.String()
}
