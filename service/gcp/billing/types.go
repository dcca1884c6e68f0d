package gcpbilling

import (
	"context"

	"cloud.google.com/go/bigquery"

	"github.com/cloudledger/costsync/model"
)

type service struct {
	projectID      string
	billingAccount string
	dataset        string
	bqClient       *bigquery.Client
}

// CostSourceService fetches raw cost records from the GCP billing
// export via BigQuery.
type CostSourceService interface {
	Provider() model.ProviderTag
	FetchCostData(ctx context.Context, query model.CostQuery) ([]model.RawRecord, error)
	Close() error
}
