// Package mcpserver exposes the engine tools over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/njchilds90/symcore"
	"github.com/njchilds90/symcore/internal/logging"
)

const exprHelp = `Expression tree, e.g. {"type":"func","name":"sqrt","args":[{"type":"num","value":"8"}]}`

// Server wraps an engine as an MCP server with one tool per engine tool.
type Server struct {
	engine    *symcore.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// New registers every engine tool.
func New(engine *symcore.Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("symcore", version, server.WithToolCapabilities(false)),
	}
	for _, def := range symcore.ToolDefs() {
		s.mcpServer.AddTool(toolFor(def), s.handler(def.Name))
	}
	return s
}

// ServeStdio serves on stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func toolFor(def symcore.ToolDef) mcp.Tool {
	required := map[string]bool{}
	for _, r := range def.Required {
		required[r] = true
	}
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for name, typ := range def.Params {
		popts := []mcp.PropertyOption{}
		if required[name] {
			popts = append(popts, mcp.Required())
		}
		switch typ {
		case "object":
			popts = append(popts, mcp.Description(exprHelp))
			opts = append(opts, mcp.WithObject(name, popts...))
		case "integer":
			opts = append(opts, mcp.WithNumber(name, popts...))
		case "array":
			popts = append(popts, mcp.Items(map[string]any{"type": "string"}))
			opts = append(opts, mcp.WithArray(name, popts...))
		default:
			opts = append(opts, mcp.WithString(name, popts...))
		}
	}
	return mcp.NewTool(def.Name, opts...)
}

func (s *Server) handler(tool string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp := s.engine.HandleTool(ctx, symcore.ToolRequest{Tool: tool, Args: request.GetArguments()})
		if resp.Error != "" {
			s.logger.Debug("mcp tool failed", "tool", tool, "kind", resp.Kind, "err", resp.Error)
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", resp.Kind, resp.Error)), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
