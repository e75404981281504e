// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package tools exposes the memorybook service as MCP tools
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/tejzpr/memorybook/internal/database"
	"github.com/tejzpr/memorybook/internal/memory"
)

// Default and max result counts for listing tools
const (
	defaultLimit = 10
	maxLimit     = 100
)

// ToolContext holds shared dependencies for all tools
type ToolContext struct {
	Service *memory.Service
	Logger  *zap.Logger
}

// NewToolContext creates a new tool context
func NewToolContext(svc *memory.Service, logger *zap.Logger) *ToolContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolContext{Service: svc, Logger: logger}
}

// serviceError turns a service error into a tool error result
func (tc *ToolContext) serviceError(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, memory.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, memory.ErrUnauthorized):
		return mcp.NewToolResultError("not authorized: " + err.Error())
	case errors.Is(err, memory.ErrInvalidInput):
		return mcp.NewToolResultError("invalid input: " + err.Error())
	}
	tc.Logger.Error("tool failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// formatMemory renders a memory for a tool response
func formatMemory(b *strings.Builder, m *database.Memory, withContent bool) {
	fmt.Fprintf(b, "## Memory %d: %s\n", m.ID, m.Context)
	fmt.Fprintf(b, "Relevance: %d | Updated: %s\n", m.RelevanceScore, m.UpdatedAt.Format("2006-01-02"))
	if names := m.TagNames(); len(names) > 0 {
		fmt.Fprintf(b, "Tags: %s\n", strings.Join(names, ", "))
	}
	if m.Summary != "" {
		fmt.Fprintf(b, "Summary: %s\n", m.Summary)
	}
	if m.Suggestions != "" {
		fmt.Fprintf(b, "Suggestions: %s\n", m.Suggestions)
	}
	if withContent && m.Content != "" {
		b.WriteString("\n")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
