// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// NewForgetTool creates the memorybook_forget tool definition
func NewForgetTool() mcp.Tool {
	return mcp.NewTool("memorybook_forget",
		mcp.WithDescription("Delete a memory that's no longer relevant. The shared content it was built from is kept."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("ID of the memory to delete"),
		),
	)
}

// ForgetHandler handles the memorybook_forget tool
func ForgetHandler(ctx *ToolContext, userID uint) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireFloat("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if id < 1 || id != float64(uint(id)) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid memory id: %v", id)), nil
		}

		if err := ctx.Service.DeleteMemory(c, userID, uint(id)); err != nil {
			return ctx.serviceError("memorybook_forget", err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Memory %d deleted", uint(id))), nil
	}
}
