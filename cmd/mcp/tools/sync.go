package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cloudledger/costsync/cmd/mcp/response"
	"github.com/cloudledger/costsync/model"
	"github.com/cloudledger/costsync/service/orchestrator"
	"github.com/cloudledger/costsync/service/recordstore"
)

// RegisterSyncTools registers the sync trigger and cost breakdown tools
// with the MCP server.
func RegisterSyncTools(
	s *server.MCPServer,
	orch orchestrator.OrchestratorService,
	store recordstore.RecordStoreService,
	currency string,
	timeout time.Duration,
) {
	s.AddTool(
		mcp.NewTool("costsync_sync_costs",
			mcp.WithDescription("Trigger a cost data sync across the configured cloud providers (AWS, Azure, GCP). Pipelines run concurrently; per-provider failures are reported, never aborting the cycle."),
			mcp.WithString("providers",
				mcp.Description("Comma-separated providers to sync (aws,azure,gcp). Empty syncs all configured providers."),
			),
			mcp.WithString("start_date",
				mcp.Description("Billing window start (YYYY-MM-DD). Requires end_date."),
			),
			mcp.WithString("end_date",
				mcp.Description("Billing window end (YYYY-MM-DD). Requires start_date."),
			),
		),
		makeSyncCostsHandler(orch, timeout),
	)

	s.AddTool(
		mcp.NewTool("costsync_get_cost_breakdown",
			mcp.WithDescription("Get the cost totals per provider accumulated by previous syncs in this session."),
		),
		makeCostBreakdownHandler(store, currency),
	)
}

func makeSyncCostsHandler(orch orchestrator.OrchestratorService, timeout time.Duration) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		window, err := parseWindow(
			request.GetString("start_date", ""),
			request.GetString("end_date", ""),
		)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var providers []string
		if value := request.GetString("providers", ""); value != "" {
			for _, name := range strings.Split(value, ",") {
				if trimmed := strings.TrimSpace(name); trimmed != "" {
					providers = append(providers, trimmed)
				}
			}
		}

		syncCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		report := orch.Sync(syncCtx, window, providers)

		data, _ := json.MarshalIndent(response.ConvertSyncReport(report), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func makeCostBreakdownHandler(store recordstore.RecordStoreService, currency string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		breakdown := response.ConvertCostBreakdown(store.CostByProvider(), currency)

		data, _ := json.MarshalIndent(breakdown, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func parseWindow(start, end string) (*model.TimeWindow, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("start_date and end_date must be given together")
	}

	startTime, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %v", err)
	}
	endTime, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %v", err)
	}

	window := model.TimeWindow{Start: startTime, End: endTime}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	return &window, nil
}
