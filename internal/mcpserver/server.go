// Package mcpserver exposes the registered script tools to an external
// orchestrator over the Model Context Protocol (stdio transport). The MCP
// side sees only names, schemas, and textual results — sandboxing stays
// entirely on this side of the boundary.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/sandscript/internal/tool"
)

// New builds an MCP server with one MCP tool per registered tool.
func New(registry *tool.Registry, version string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("sandscript", version)

	for _, schema := range registry.Schemas() {
		mcpTool := mcp.NewToolWithRawSchema(schema.Name, schema.Description, schema.Schema)
		s.AddTool(mcpTool, handler(registry, schema.Name, logger))
	}

	return s
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// handler forwards one MCP tool call to the registry. Execution failures
// come back as MCP error results, never as protocol errors: a failing
// script is a tool outcome, not a server fault.
func handler(registry *tool.Registry, name string, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
		}

		out, err := registry.Execute(ctx, name, args)
		if err != nil {
			logger.Warn("mcp tool call failed",
				slog.String("tool", name),
				slog.String("error", err.Error()),
			)
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(out.Content), nil
	}
}
