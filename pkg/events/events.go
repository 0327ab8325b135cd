// Package events carries observability events from the workflow to a
// caller-supplied sink.
//
// Emitters never fall back to another destination when a sink is absent or
// failing: "no sink" is expressed by passing [Discard], and sink failures are
// the sink implementation's own concern.
package events

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Kind identifies the type of workflow event.
type Kind string

const (
	KindSectionStart Kind = "section_start"
	KindSectionEnd   Kind = "section_end"
	KindAttempt      Kind = "attempt"
	KindRetryWait    Kind = "retry_wait"
	KindToolCall     Kind = "tool_call"
	KindToolResult   Kind = "tool_result"
	KindAgentText    Kind = "agent_text"
	KindError        Kind = "error"
)

// Event is an immutable notification of workflow activity. Only the fields
// relevant to the Kind are populated. Payload and Text carry full, untruncated
// data; truncation is a rendering concern.
type Event struct {
	Kind        Kind
	Section     string
	Attempt     int
	MaxAttempts int
	Wait        time.Duration
	Name        string // tool name for tool_call / tool_result
	Payload     string // raw JSON arguments or tool output
	Text        string
	Err         error
	Timestamp   time.Time
}

// Sink receives workflow events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

type discard struct{}

func (discard) Emit(Event) {}

// Discard is a Sink that drops every event.
var Discard Sink = discard{}

// Display truncation widths. Text snippets are tighter than raw tool
// payloads so final answers stay readable in a scrolling log.
const (
	TextSnippetWidth    = 500
	PayloadSnippetWidth = 1000
)

// Snippet truncates s to the given display width, collapsing newlines so a
// snippet occupies one log line. The full data stays on the Event.
func Snippet(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, width, "…")
}
