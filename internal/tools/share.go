// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tejzpr/memorybook/internal/memory"
)

// NewShareTool creates the memorybook_share tool definition
func NewShareTool() mcp.Tool {
	return mcp.NewTool("memorybook_share",
		mcp.WithDescription("Share a piece of content (article, note, link). It is saved and merged into the memory on the same topic, or starts a new memory when nothing similar exists. Returns the memory it landed in."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the content"),
		),
		mcp.WithString("text",
			mcp.Description("Body text of the content"),
		),
		mcp.WithString("description",
			mcp.Description("Short description"),
		),
		mcp.WithString("type",
			mcp.Description("Content type"),
			mcp.Enum("article", "blog", "news", "link", "image", "video", "other"),
		),
		mcp.WithString("url",
			mcp.Description("Source URL"),
		),
		mcp.WithString("source",
			mcp.Description("Where the content came from"),
		),
		mcp.WithArray("tags",
			mcp.Description("Labels for organization"),
		),
	)
}

// ShareHandler handles the memorybook_share tool
func ShareHandler(ctx *ToolContext, userID uint) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := request.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		shared, err := ctx.Service.ShareContent(c, userID, memory.ShareRequest{
			Type:        request.GetString("type", ""),
			Title:       title,
			Description: request.GetString("description", ""),
			TextContent: request.GetString("text", ""),
			URL:         request.GetString("url", ""),
			Source:      request.GetString("source", ""),
			Tags:        request.GetStringSlice("tags", nil),
		})
		if err != nil {
			return ctx.serviceError("memorybook_share", err), nil
		}

		var b strings.Builder
		if shared.IsNew() {
			fmt.Fprintf(&b, "Saved content %d as a new memory.\n", shared.Content.ID)
		} else {
			fmt.Fprintf(&b, "Saved content %d and merged it into an existing memory (similarity %.2f).\n",
				shared.Content.ID, shared.Similarity)
		}
		fmt.Fprintf(&b, "Extracted context: %s\n\n", shared.Content.ExtractedContext)
		formatMemory(&b, shared.Memory, false)

		return mcp.NewToolResultText(strings.TrimSpace(b.String())), nil
	}
}
