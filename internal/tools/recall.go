// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tejzpr/memorybook/internal/database"
)

// NewRecallTool creates the memorybook_recall tool definition
func NewRecallTool() mcp.Tool {
	return mcp.NewTool("memorybook_recall",
		mcp.WithDescription("Find memories about a topic. Searches memory content, context and keywords, ignoring case. Use 'context' instead to fetch memories whose context matches exactly."),
		mcp.WithString("query",
			mcp.Description("Text to search for. Example: 'ownership'"),
		),
		mcp.WithString("context",
			mcp.Description("Exact memory context, ignoring case"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results. Default: 10"),
		),
	)
}

// RecallHandler handles the memorybook_recall tool
func RecallHandler(ctx *ToolContext, userID uint) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := strings.TrimSpace(request.GetString("query", ""))
		memoryContext := strings.TrimSpace(request.GetString("context", ""))
		limit := clampLimit(int(request.GetFloat("limit", defaultLimit)))

		var (
			memories []database.Memory
			err      error
		)
		switch {
		case memoryContext != "":
			memories, err = ctx.Service.MemoriesByContext(c, userID, memoryContext)
		case query != "":
			memories, err = ctx.Service.SearchMemories(c, userID, query)
		default:
			return mcp.NewToolResultError("please provide 'query' or 'context'"), nil
		}
		if err != nil {
			return ctx.serviceError("memorybook_recall", err), nil
		}

		if len(memories) == 0 {
			return mcp.NewToolResultText("No memories found."), nil
		}

		// Most referenced first
		sort.SliceStable(memories, func(i, j int) bool {
			return memories[i].RelevanceScore > memories[j].RelevanceScore
		})
		if len(memories) > limit {
			memories = memories[:limit]
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d memories.\n\n", len(memories))
		for i := range memories {
			formatMemory(&b, &memories[i], true)
		}
		return mcp.NewToolResultText(strings.TrimSpace(b.String())), nil
	}
}
