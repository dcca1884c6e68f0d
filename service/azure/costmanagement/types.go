package azurecostmanagement

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"

	"github.com/cloudledger/costsync/model"
)

type service struct {
	subscriptionID string
	client         *armcostmanagement.QueryClient
}

// CostSourceService fetches raw cost records from Azure Cost Management.
type CostSourceService interface {
	Provider() model.ProviderTag
	FetchCostData(ctx context.Context, query model.CostQuery) ([]model.RawRecord, error)
}

// Credential is passed to allow reuse across services
type Credential = azidentity.DefaultAzureCredential
