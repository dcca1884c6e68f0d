package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cloudledger/costsync/cmd/mcp/response"
	"github.com/cloudledger/costsync/service/orchestrator"
)

// RegisterStatusTools registers the sync status tool with the MCP server.
func RegisterStatusTools(s *server.MCPServer, orch orchestrator.OrchestratorService) {
	s.AddTool(
		mcp.NewTool("costsync_get_sync_status",
			mcp.WithDescription("Get the status of the last sync cycle: when it ran, how many records it processed, and the last-known state of each provider pipeline."),
		),
		makeSyncStatusHandler(orch),
	)
}

func makeSyncStatusHandler(orch orchestrator.OrchestratorService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := response.ConvertSyncStatus(orch.Status())

		data, _ := json.MarshalIndent(status, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}
