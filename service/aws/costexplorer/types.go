package awscostexplorer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/costexplorer"

	"github.com/cloudledger/costsync/model"
)

type service struct {
	client *costexplorer.Client
}

// CostSourceService fetches raw cost records from AWS Cost Explorer.
type CostSourceService interface {
	Provider() model.ProviderTag
	FetchCostData(ctx context.Context, query model.CostQuery) ([]model.RawRecord, error)
}
