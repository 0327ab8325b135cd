package toolbox

import (
	"context"
	"encoding/json"
)

// Handler executes a tool with the given raw JSON arguments and returns its
// textual result. Handlers for remote tools proxy the call over the tool
// session; the handler owns any transport error mapping.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is one capability the model may invoke: a name and description the
// model sees, a JSON Schema describing its arguments, and the handler that
// runs it.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}
