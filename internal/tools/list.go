// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tejzpr/memorybook/internal/database"
)

// NewListTool creates the memorybook_list tool definition
func NewListTool() mcp.Tool {
	return mcp.NewTool("memorybook_list",
		mcp.WithDescription("List what is stored. 'memories' lists topic memories; 'content' lists shared items, newest first, optionally filtered by type."),
		mcp.WithString("kind",
			mcp.Description("What to list. Default: memories"),
			mcp.Enum("memories", "content"),
		),
		mcp.WithString("type",
			mcp.Description("Content type filter (kind=content only)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results. Default: 10"),
		),
	)
}

// ListHandler handles the memorybook_list tool
func ListHandler(ctx *ToolContext, userID uint) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind := request.GetString("kind", "memories")
		limit := clampLimit(int(request.GetFloat("limit", defaultLimit)))

		switch kind {
		case "memories":
			memories, err := ctx.Service.ListMemories(c, userID)
			if err != nil {
				return ctx.serviceError("memorybook_list", err), nil
			}
			if len(memories) == 0 {
				return mcp.NewToolResultText("No memories stored yet."), nil
			}
			total := len(memories)
			if total > limit {
				memories = memories[:limit]
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%d memories (showing %d).\n\n", total, len(memories))
			for i := range memories {
				formatMemory(&b, &memories[i], false)
			}
			return mcp.NewToolResultText(strings.TrimSpace(b.String())), nil

		case "content":
			var (
				contents []database.Content
				err      error
			)
			if typeName := request.GetString("type", ""); typeName != "" {
				contents, err = ctx.Service.ListContentByType(c, userID, typeName)
			} else {
				contents, err = ctx.Service.ListContent(c, userID)
			}
			if err != nil {
				return ctx.serviceError("memorybook_list", err), nil
			}
			if len(contents) == 0 {
				return mcp.NewToolResultText("No content shared yet."), nil
			}
			total := len(contents)
			if total > limit {
				contents = contents[:limit]
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%d content items (showing %d).\n\n", total, len(contents))
			for _, content := range contents {
				fmt.Fprintf(&b, "- [%d] %s (%s) %s\n", content.ID, content.Title, content.Type,
					content.CreatedAt.Format("2006-01-02"))
			}
			return mcp.NewToolResultText(strings.TrimSpace(b.String())), nil

		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q: use 'memories' or 'content'", kind)), nil
		}
	}
}
