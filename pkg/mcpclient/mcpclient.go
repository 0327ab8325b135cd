// Package mcpclient opens and owns the remote tool session. It spawns an MCP
// server subprocess over stdio using the official MCP Go SDK and exposes the
// server's tools as toolbox.Tools.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/passionateSandy2004/agenticShopping/pkg/toolbox"
)

// ErrSessionInit is wrapped by every spawn or handshake failure. A session
// that fails to initialize is fatal to the whole workflow.
var ErrSessionInit = errors.New("mcpclient: session init failed")

// BrightData server launch constants.
const (
	brightDataCommand = "npx"
	tokenEnvName      = "API_TOKEN"
)

var brightDataArgs = []string{"-y", "@brightdata/mcp"}

// Client is a stateful handle to a remote tool-execution service. It is
// opened once per workflow run, reused by every agent task, and closed when
// the run ends.
type Client struct {
	client  *mcp.Client
	session *mcp.ClientSession
}

// New spawns an MCP server process with the given extra environment entries
// ("KEY=value") and returns a connected client. The SDK performs the
// initialize handshake during Connect.
func New(ctx context.Context, command string, env []string, args ...string) (*Client, error) {
	cmd := exec.Command(command, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	transport := &mcp.CommandTransport{Command: cmd}

	c, err := newFromTransport(ctx, transport)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionInit, err)
	}
	return c, nil
}

// NewBrightData spawns the BrightData MCP server ("npx -y @brightdata/mcp")
// with the API token passed through the environment. An empty token is
// forwarded as-is; auth failures then surface from the server later.
func NewBrightData(ctx context.Context, apiToken string) (*Client, error) {
	env := []string{tokenEnvName + "=" + apiToken}
	return New(ctx, brightDataCommand, env, brightDataArgs...)
}

// newFromTransport creates a Client using the given transport. Split out so
// tests can connect over in-memory transports.
func newFromTransport(ctx context.Context, transport mcp.Transport) (*Client, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "agentic-shopping",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &Client{client: client, session: session}, nil
}

// ListTools fetches available tools from the server and returns them as
// toolbox.Tool instances. Each Tool's Handler closure calls back through
// CallTool on this session.
func (c *Client) ListTools(ctx context.Context) ([]toolbox.Tool, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list tools: %w", err)
	}

	tools := make([]toolbox.Tool, 0, len(result.Tools))
	for _, sdkTool := range result.Tools {
		t, err := fromSDKTool(sdkTool, c)
		if err != nil {
			return nil, fmt.Errorf("mcpclient: convert tool %q: %w", sdkTool.Name, err)
		}
		tools = append(tools, t)
	}

	return tools, nil
}

// CallTool calls a named tool on the server with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	var args map[string]any
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return "", fmt.Errorf("mcpclient: unmarshal arguments: %w", err)
		}
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("mcpclient: call tool: %w", err)
	}

	text := extractText(result)

	if result.IsError {
		return "", fmt.Errorf("mcpclient: tool error: %s", text)
	}

	return text, nil
}

// Close terminates the session and releases resources. The MCP Go SDK owns
// the subprocess lifecycle: closing the session closes stdin, waits with a
// timeout, and escalates through SIGTERM/SIGKILL.
func (c *Client) Close() error {
	return c.session.Close()
}

// fromSDKTool converts an SDK *mcp.Tool to a toolbox.Tool. The handler
// closure calls CallTool on the client.
func fromSDKTool(sdkTool *mcp.Tool, c *Client) (toolbox.Tool, error) {
	schemaBytes, err := json.Marshal(sdkTool.InputSchema)
	if err != nil {
		return toolbox.Tool{}, fmt.Errorf("marshal input schema: %w", err)
	}

	name := sdkTool.Name

	return toolbox.Tool{
		Name:        sdkTool.Name,
		Description: sdkTool.Description,
		InputSchema: json.RawMessage(schemaBytes),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			return c.CallTool(ctx, name, input)
		},
	}, nil
}

// extractText joins all TextContent items from a CallToolResult with newlines.
func extractText(result *mcp.CallToolResult) string {
	var texts []string
	for _, item := range result.Content {
		if tc, ok := item.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}

	return strings.Join(texts, "\n")
}
