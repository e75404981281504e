// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/tejzpr/memorybook/internal/auth"
	"github.com/tejzpr/memorybook/internal/memory"
	"github.com/tejzpr/memorybook/internal/tools"
)

// Version is reported to MCP clients
const Version = "1.0.0"

type toolHandlerFactory func(*tools.ToolContext, uint) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

type toolEntry struct {
	tool    mcp.Tool
	handler toolHandlerFactory
}

func toolSet() []toolEntry {
	return []toolEntry{
		// memorybook_share: "Keep this with what I already know"
		{tools.NewShareTool(), tools.ShareHandler},
		// memorybook_recall: "What do I know about X?"
		{tools.NewRecallTool(), tools.RecallHandler},
		{tools.NewListTool(), tools.ListHandler},
		// memorybook_forget: "No longer relevant"
		{tools.NewForgetTool(), tools.ForgetHandler},
	}
}

// MCPServer wraps the mcp-go server with our configuration
type MCPServer struct {
	mcpServer *server.MCPServer
	toolCtx   *tools.ToolContext
	logger    *zap.Logger
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(svc *memory.Service, logger *zap.Logger) *MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	mcpServer := server.NewMCPServer(
		"Memorybook",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	return &MCPServer{
		mcpServer: mcpServer,
		toolCtx:   tools.NewToolContext(svc, logger.Named("tools")),
		logger:    logger,
	}
}

// RegisterToolsForUser registers all MCP tools bound to a single user.
// Used in stdio mode where the process serves one local account.
func (s *MCPServer) RegisterToolsForUser(userID uint) {
	for _, entry := range toolSet() {
		s.mcpServer.AddTool(entry.tool, entry.handler(s.toolCtx, userID))
	}
	s.logger.Debug("registered MCP tools", zap.Uint("user_id", userID))
}

// RegisterToolsForRequestUser registers all MCP tools resolving the user
// from the authenticated request context on every call
func (s *MCPServer) RegisterToolsForRequestUser() {
	for _, entry := range toolSet() {
		factory := entry.handler
		s.mcpServer.AddTool(entry.tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			userID, ok := auth.GetUserIDFromContext(ctx)
			if !ok {
				return mcp.NewToolResultError("unauthorized"), nil
			}
			return factory(s.toolCtx, userID)(ctx, request)
		})
	}
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
