package message

import (
	"testing"

	"github.com/passionateSandy2004/agenticShopping/pkg/chats/content"
	"github.com/passionateSandy2004/agenticShopping/pkg/chats/role"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	msg := New("user", role.User, content.Text{Text: "hello"}, content.Text{Text: "world"})

	assert.Equal(t, "user", msg.Sender)
	assert.Equal(t, role.User, msg.Role)
	assert.Len(t, msg.Parts, 2)
}

func TestNewText(t *testing.T) {
	msg := NewText("model", role.Assistant, "hi there")

	assert.Equal(t, "model", msg.Sender)
	assert.Equal(t, role.Assistant, msg.Role)
	assert.Len(t, msg.Parts, 1)
	assert.Equal(t, "hi there", msg.Parts[0].(content.Text).Text)
}

func TestMessage_Sender_ZeroValue(t *testing.T) {
	var msg Message

	assert.Empty(t, msg.Sender)
}

func TestMessage_TextContent(t *testing.T) {
	msg := New("user", role.User,
		content.Text{Text: "hello "},
		content.ToolCall{ID: "1", Name: "search_engine"},
		content.Text{Text: "world"},
	)

	assert.Equal(t, "hello world", msg.TextContent())
}

func TestMessage_TextContent_NoParts(t *testing.T) {
	msg := New("user", role.User)
	assert.Empty(t, msg.TextContent())
}

func TestMessage_ToolCalls(t *testing.T) {
	tc1 := content.ToolCall{ID: "1", Name: "search_engine", Arguments: `{"query":"pixel 8"}`}
	tc2 := content.ToolCall{ID: "2", Name: "scrape_as_markdown", Arguments: `{"url":"https://store.google.com"}`}
	msg := New("model", role.Assistant,
		content.Text{Text: "let me check"},
		tc1,
		tc2,
	)

	calls := msg.ToolCalls()
	assert.Len(t, calls, 2)
	assert.Equal(t, tc1, calls[0])
	assert.Equal(t, tc2, calls[1])
}

func TestMessage_ToolCalls_None(t *testing.T) {
	msg := NewText("user", role.User, "hello")
	assert.Empty(t, msg.ToolCalls())
}
