package tools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cloudledger/costsync/cmd/mcp/response"
	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

// RegisterValidationTools registers the credential validation tool with
// the MCP server.
func RegisterValidationTools(s *server.MCPServer, identities map[model.ProviderTag]costsync.IdentityService) {
	s.AddTool(
		mcp.NewTool("costsync_validate_providers",
			mcp.WithDescription("Validate credentials for every configured cloud provider by fetching its account or project identity."),
		),
		makeValidateProvidersHandler(identities),
	)
}

func makeValidateProvidersHandler(identities map[model.ProviderTag]costsync.IdentityService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			results []model.ProviderValidation
		)

		for provider, identity := range identities {
			wg.Add(1)
			go func(provider model.ProviderTag, identity costsync.IdentityService) {
				defer wg.Done()

				account, err := identity.GetAccountInfo(ctx)

				mu.Lock()
				results = append(results, model.ProviderValidation{
					Provider: provider,
					Account:  account,
					Error:    err,
				})
				mu.Unlock()
			}(provider, identity)
		}

		wg.Wait()

		data, _ := json.MarshalIndent(response.ConvertValidations(results), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}
