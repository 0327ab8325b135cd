// Package agenttask runs one goal-directed prompt/response cycle against the
// model backend, scoped to a named report section.
package agenttask

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/passionateSandy2004/agenticShopping/pkg/chats/chat"
	"github.com/passionateSandy2004/agenticShopping/pkg/chats/content"
	"github.com/passionateSandy2004/agenticShopping/pkg/chats/message"
	"github.com/passionateSandy2004/agenticShopping/pkg/chats/role"
	"github.com/passionateSandy2004/agenticShopping/pkg/events"
	"github.com/passionateSandy2004/agenticShopping/pkg/modeladapter"
	"github.com/passionateSandy2004/agenticShopping/pkg/toolbox"
)

// ErrMaxTurns is returned when the completion/tool loop exceeds MaxTurns
// without the model producing a final answer.
var ErrMaxTurns = errors.New("agenttask: max turns reached")

// DefaultMaxTurns bounds the completion/tool loop when the Task does not set
// its own limit.
const DefaultMaxTurns = 16

const promptTemplate = `You are the %s agent.
Goal: %s

User query: %s

Instructions:
- Use the available tools to browse and gather live data.
- Prefer official product pages and reputable sources.
- Return clear, factual information. If uncertain, say so.
- Include sources (URLs) in your answer when possible.
`

// Task drives one section's agent run. Completer is typically a retrying
// invoker already labeled with the section name. Task is not safe for
// concurrent use.
type Task struct {
	Completer modeladapter.Completer
	Tools     *toolbox.ToolBox
	Sink      events.Sink
	MaxTurns  int
}

// BuildPrompt fills the fixed task template with the section name, goal, and
// user query.
func BuildPrompt(spec Spec, userQuery string) string {
	return fmt.Sprintf(promptTemplate, spec.Section, spec.Goal, userQuery)
}

// Run builds the task prompt and drives the completion/tool loop: while the
// model replies with tool calls, execute them through the toolbox, append
// the results, and complete again. The loop ends when a reply carries no
// tool calls; its text is returned verbatim. An empty string means the model
// produced no answer; callers must treat that as "no data", not success.
//
// Every tool call, tool result, and text part is emitted as a structured
// event. The classification is purely observability; it never affects
// control flow or the returned value.
func (t *Task) Run(ctx context.Context, spec Spec, userQuery string) (string, error) {
	sink := t.Sink
	if sink == nil {
		sink = events.Discard
	}

	maxTurns := t.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	sink.Emit(events.Event{
		Kind:      events.KindSectionStart,
		Section:   spec.Section,
		Timestamp: time.Now(),
	})

	c := chat.New(message.NewText("user", role.User, BuildPrompt(spec, userQuery)))
	tools := t.Tools.Tools()

	for turn := 0; turn < maxTurns; turn++ {
		reply, err := t.Completer.Complete(ctx, c, tools)
		if err != nil {
			sink.Emit(events.Event{
				Kind:      events.KindError,
				Section:   spec.Section,
				Err:       err,
				Timestamp: time.Now(),
			})
			return "", err
		}

		c.Append(reply)
		t.emitParts(sink, spec.Section, reply)

		calls := reply.ToolCalls()
		if len(calls) == 0 {
			sink.Emit(events.Event{
				Kind:      events.KindSectionEnd,
				Section:   spec.Section,
				Timestamp: time.Now(),
			})
			return reply.TextContent(), nil
		}

		for _, tc := range calls {
			result := t.Tools.Call(ctx, tc)
			c.Append(message.New("", role.Tool, result))

			sink.Emit(events.Event{
				Kind:      events.KindToolResult,
				Section:   spec.Section,
				Name:      tc.Name,
				Payload:   result.Content,
				Timestamp: time.Now(),
			})

			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}
	}

	return "", ErrMaxTurns
}

// emitParts publishes one event per reply part.
func (t *Task) emitParts(sink events.Sink, section string, reply message.Message) {
	for _, p := range reply.Parts {
		switch v := p.(type) {
		case content.ToolCall:
			sink.Emit(events.Event{
				Kind:      events.KindToolCall,
				Section:   section,
				Name:      v.Name,
				Payload:   v.Arguments,
				Timestamp: time.Now(),
			})
		case content.Text:
			sink.Emit(events.Event{
				Kind:      events.KindAgentText,
				Section:   section,
				Text:      v.Text,
				Timestamp: time.Now(),
			})
		}
	}
}
