// Package mcpserver exposes the report tools over the Model Context Protocol
// so other agents can call them directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chris/briefing/internal/logging"
	"github.com/chris/briefing/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tidwall/gjson"
)

const (
	serverName    = "briefing"
	serverVersion = "0.1.0"
)

// New builds an MCP server with one MCP tool per registry entry.
func New(registry *tools.Registry) (*server.MCPServer, error) {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))
	for _, name := range registry.Names() {
		t, _ := registry.Get(name)
		schema, err := json.Marshal(t.Parameters())
		if err != nil {
			return nil, fmt.Errorf("encoding schema for %s: %w", name, err)
		}
		s.AddTool(mcp.NewToolWithRawSchema(name, t.Description(), schema), handler(registry, name))
	}
	return s, nil
}

func handler(registry *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding arguments: %v", err)), nil
		}
		out, err := registry.Invoke(ctx, name, string(raw))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if msg := gjson.Get(out, "error"); msg.Exists() {
			return mcp.NewToolResultError(msg.String()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// ServeStdio blocks serving MCP over stdin/stdout.
func ServeStdio(registry *tools.Registry) error {
	s, err := New(registry)
	if err != nil {
		return err
	}
	logging.For("mcp").Info().Int("tools", registry.Len()).Msg("serving tools over stdio")
	return server.ServeStdio(s)
}
