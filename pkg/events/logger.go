package events

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is a Sink that renders events as structured console log lines.
type Logger struct {
	log     zerolog.Logger
	verbose bool
}

// NewLogger creates a console sink writing to w. When verbose is false,
// tool calls, tool results, and intermediate agent text are suppressed and
// only section lifecycle, attempts, and errors are logged.
func NewLogger(w io.Writer, verbose bool) *Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()

	return &Logger{log: zl, verbose: verbose}
}

// Emit renders one event. Payload and text snippets are truncated for
// display only.
func (l *Logger) Emit(e Event) {
	switch e.Kind {
	case KindSectionStart:
		l.log.Info().Str("section", e.Section).Msg("agent running")
	case KindSectionEnd:
		l.log.Info().Str("section", e.Section).Msg("agent completed")
	case KindAttempt:
		l.log.Info().
			Str("section", e.Section).
			Int("attempt", e.Attempt).
			Int("max", e.MaxAttempts).
			Msg("contacting model")
	case KindRetryWait:
		l.log.Warn().
			Str("section", e.Section).
			Int("attempt", e.Attempt).
			Dur("wait", e.Wait).
			Err(e.Err).
			Msg("model request failed, retrying")
	case KindToolCall:
		if !l.verbose {
			return
		}
		l.log.Info().
			Str("section", e.Section).
			Str("tool", e.Name).
			Str("args", Snippet(e.Payload, PayloadSnippetWidth)).
			Msg("tool call")
	case KindToolResult:
		if !l.verbose {
			return
		}
		l.log.Info().
			Str("section", e.Section).
			Str("tool", e.Name).
			Str("result", Snippet(e.Payload, PayloadSnippetWidth)).
			Msg("tool result")
	case KindAgentText:
		if !l.verbose {
			return
		}
		l.log.Info().
			Str("section", e.Section).
			Str("text", Snippet(e.Text, TextSnippetWidth)).
			Msg("agent response")
	case KindError:
		l.log.Error().Str("section", e.Section).Err(e.Err).Msg("agent failed")
	}
}
