package azurecostmanagement

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"

	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

func NewService(subscriptionID string, credential *Credential) (*service, error) {
	client, err := armcostmanagement.NewQueryClient(credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client: %w", err)
	}

	return &service{
		subscriptionID: subscriptionID,
		client:         client,
	}, nil
}

func (s *service) Provider() model.ProviderTag {
	return model.ProviderAzure
}

// FetchCostData runs one Cost Management query against the subscription
// scope. Azure answers with positional columns; each row is preserved
// as-is together with the column list, interpretation is the
// normalizer's job.
func (s *service) FetchCostData(ctx context.Context, query model.CostQuery) ([]model.RawRecord, error) {
	// The query API only buckets by day; coarser or finer granularities
	// are a capability this vendor does not have.
	if query.Granularity != model.GranularityDaily {
		return nil, &costsync.UnsupportedGranularityError{
			Provider:    model.ProviderAzure,
			Granularity: query.Granularity,
		}
	}

	scope := fmt.Sprintf("/subscriptions/%s", s.subscriptionID)

	queryDefinition := armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeActualCost),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeCustom),
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: to.Ptr(query.Window.Start),
			To:   to.Ptr(query.Window.End),
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityTypeDaily),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
			Grouping: s.buildGrouping(query.GroupBy),
			Filter:   s.buildFilter(query.Filters),
		},
	}

	resp, err := s.client.Usage(ctx, scope, queryDefinition, nil)
	if err != nil {
		return nil, &costsync.FetchError{Provider: model.ProviderAzure, Err: err}
	}

	return s.collectRecords(resp.QueryResult), nil
}

// buildGrouping translates canonical dimension names into Cost
// Management query groupings. Unknown dimensions are ignored.
func (s *service) buildGrouping(groupBy []string) []*armcostmanagement.QueryGrouping {
	var grouping []*armcostmanagement.QueryGrouping

	for _, dim := range groupBy {
		name, ok := dimensionName(dim)
		if !ok {
			continue
		}
		grouping = append(grouping, &armcostmanagement.QueryGrouping{
			Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension),
			Name: to.Ptr(name),
		})
	}

	return grouping
}

// buildFilter converts the dimension->values map into an AND of
// per-dimension In comparisons, matching the query API's filter tree.
func (s *service) buildFilter(filters map[string][]string) *armcostmanagement.QueryFilter {
	if len(filters) == 0 {
		return nil
	}

	var clauses []*armcostmanagement.QueryFilter
	for dim, values := range filters {
		name, ok := dimensionName(dim)
		if !ok || len(values) == 0 {
			continue
		}
		clauses = append(clauses, &armcostmanagement.QueryFilter{
			Dimensions: &armcostmanagement.QueryComparisonExpression{
				Name:     to.Ptr(name),
				Operator: to.Ptr(armcostmanagement.QueryOperatorTypeIn),
				Values:   to.SliceOfPtrs(values...),
			},
		})
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return &armcostmanagement.QueryFilter{And: clauses}
	}
}

func (s *service) collectRecords(result armcostmanagement.QueryResult) []model.RawRecord {
	var records []model.RawRecord

	if result.Properties == nil || result.Properties.Rows == nil {
		return records
	}

	columns := make([]string, 0, len(result.Properties.Columns))
	for _, col := range result.Properties.Columns {
		if col.Name != nil {
			columns = append(columns, *col.Name)
		} else {
			columns = append(columns, "")
		}
	}

	for _, row := range result.Properties.Rows {
		records = append(records, model.RawRecord{
			"columns": columns,
			"row":     row,
		})
	}

	return records
}

// dimensionName maps a canonical dimension name onto the Cost
// Management dimension.
func dimensionName(dim string) (string, bool) {
	switch strings.ToLower(dim) {
	case "service":
		return "ServiceName", true
	case "region":
		return "ResourceLocation", true
	case "resource_id":
		return "ResourceId", true
	case "resource_group":
		return "ResourceGroupName", true
	case "meter_category":
		return "MeterCategory", true
	default:
		return "", false
	}
}
