// Command shopagent runs the shopping-report workflow once and prints the
// report to standard output.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/passionateSandy2004/agenticShopping/pkg/events"
	"github.com/passionateSandy2004/agenticShopping/pkg/modeladapter/usage"
	"github.com/passionateSandy2004/agenticShopping/pkg/workflow"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (default: environment only)")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	query := flag.String("query", "", "product query (default: built-in query)")
	verbose := flag.Bool("verbose", false, "log tool calls, tool results, and intermediate agent text")
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(*configPath, *query, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadDotEnv loads the env file if it exists. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

func run(configPath, query string, verbose bool) error {
	var cfg workflow.Config
	if configPath != "" {
		var err error
		cfg, err = workflow.Load(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = workflow.FromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := events.NewLogger(os.Stderr, verbose)
	wf := workflow.New(cfg, sink)

	report, err := wf.Run(ctx, query)

	// Completed sections are printed even when a later section failed.
	printReport(os.Stdout, report)

	total, calls := wf.TokenUsage()
	printUsage(os.Stdout, total, calls)

	return err
}

func printReport(w io.Writer, r workflow.Report) {
	if len(r.Sections) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Unified Shopping Report"))

	for i, s := range r.Sections {
		fmt.Fprintf(w, "\n%s\n\n", headerStyle.Render(fmt.Sprintf("%d) %s", i+1, s.Section)))

		text := s.Text
		if text == "" {
			text = "No data."
		}
		fmt.Fprintln(w, text)
	}
}

// printUsage prints the run's token totals. Silent when no model call
// completed.
func printUsage(w io.Writer, total usage.TokenCount, calls int) {
	if calls == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", faintStyle.Render(fmt.Sprintf(
		"model usage: %d calls, %d input + %d output tokens",
		calls, total.InputTokens, total.OutputTokens)))
}
