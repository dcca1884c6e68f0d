package gcpbilling

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/bigquery"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

// DefaultDataset is the conventional dataset name for the GCP billing
// export.
const DefaultDataset = "billing_export"

func NewService(ctx context.Context, projectID, billingAccount, dataset string, creds *google.Credentials) (*service, error) {
	var opts []option.ClientOption
	if creds != nil {
		opts = append(opts, option.WithCredentials(creds))
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	if dataset == "" {
		dataset = DefaultDataset
	}

	return &service{
		projectID:      projectID,
		billingAccount: billingAccount,
		dataset:        dataset,
		bqClient:       bqClient,
	}, nil
}

// Close closes the BigQuery client
func (s *service) Close() error {
	return s.bqClient.Close()
}

func (s *service) Provider() model.ProviderTag {
	return model.ProviderGCP
}

// FetchCostData queries the billing export table. BigQuery does the
// grouping, so rows arrive pre-aggregated and keyed by column name.
func (s *service) FetchCostData(ctx context.Context, query model.CostQuery) ([]model.RawRecord, error) {
	sql, params, err := s.buildBillingQuery(query)
	if err != nil {
		return nil, err
	}

	q := s.bqClient.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, &costsync.FetchError{Provider: model.ProviderGCP, Err: err}
	}

	var records []model.RawRecord

	for {
		var row map[string]bigquery.Value

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &costsync.FetchError{
				Provider: model.ProviderGCP,
				Err:      fmt.Errorf("failed to read BigQuery row: %w", err),
			}
		}

		record := make(model.RawRecord, len(row))
		for name, value := range row {
			record[name] = value
		}
		records = append(records, record)
	}

	return records, nil
}

// buildBillingQuery assembles the parameterized export-table query. The
// table name format is project.dataset.gcp_billing_export_v1_ACCOUNT
// with dashes in the billing account replaced by underscores.
func (s *service) buildBillingQuery(query model.CostQuery) (string, []bigquery.QueryParameter, error) {
	bucket, err := bucketExpression(query.Granularity)
	if err != nil {
		return "", nil, err
	}

	billingAccountID := strings.ReplaceAll(s.billingAccount, "billingAccounts/", "")
	billingAccountID = strings.ReplaceAll(billingAccountID, "-", "_")
	table := fmt.Sprintf("%s.%s.gcp_billing_export_v1_%s", s.projectID, s.dataset, billingAccountID)

	selects := []string{
		fmt.Sprintf("%s AS usage_start", bucket),
		"SUM(cost) AS total_cost",
		"SUM(usage.amount) AS usage_amount",
		"ANY_VALUE(usage.unit) AS usage_unit",
		"currency",
	}
	groups := []string{"usage_start", "currency"}

	for _, dim := range query.GroupBy {
		column, alias, ok := dimensionColumn(dim)
		if !ok {
			continue
		}
		selects = append(selects, fmt.Sprintf("%s AS %s", column, alias))
		groups = append(groups, alias)
	}

	params := []bigquery.QueryParameter{
		{Name: "startDate", Value: query.Window.Start.Format("2006-01-02")},
		{Name: "endDate", Value: query.Window.End.Format("2006-01-02")},
	}

	conditions := []string{
		"DATE(usage_start_time) >= @startDate",
		"DATE(usage_start_time) < @endDate",
	}

	for i, dim := range sortedFilterDims(query.Filters) {
		column, _, ok := dimensionColumn(dim)
		if !ok {
			continue
		}
		name := fmt.Sprintf("filter%d", i)
		conditions = append(conditions, fmt.Sprintf("%s IN UNNEST(@%s)", column, name))
		params = append(params, bigquery.QueryParameter{Name: name, Value: query.Filters[dim]})
	}

	sql := fmt.Sprintf(`
		SELECT
			%s
		FROM %s
		WHERE
			%s
		GROUP BY %s
		ORDER BY usage_start
	`,
		strings.Join(selects, ",\n\t\t\t"),
		"`"+table+"`",
		strings.Join(conditions, "\n\t\t\tAND "),
		strings.Join(groups, ", "))

	return sql, params, nil
}

// bucketExpression maps a granularity onto the export-table time bucket.
func bucketExpression(g model.Granularity) (string, error) {
	switch g {
	case model.GranularityDaily:
		return "FORMAT_DATE('%Y-%m-%d', DATE(usage_start_time))", nil
	case model.GranularityMonthly:
		return "FORMAT_DATE('%Y-%m-01', DATE(usage_start_time))", nil
	case model.GranularityHourly:
		return "FORMAT_TIMESTAMP('%Y-%m-%dT%H:00:00Z', TIMESTAMP_TRUNC(usage_start_time, HOUR))", nil
	default:
		return "", &costsync.UnsupportedGranularityError{Provider: model.ProviderGCP, Granularity: g}
	}
}

// dimensionColumn maps a canonical dimension name onto the export-table
// column and the alias used in the grouped result.
func dimensionColumn(dim string) (column, alias string, ok bool) {
	switch strings.ToLower(dim) {
	case "service":
		return "service.description", "service", true
	case "region":
		return "location.region", "region", true
	case "resource_id":
		return "resource.name", "resource_name", true
	case "project":
		return "project.id", "project_id", true
	default:
		return "", "", false
	}
}

// sortedFilterDims keeps parameter naming deterministic across calls.
func sortedFilterDims(filters map[string][]string) []string {
	dims := make([]string, 0, len(filters))
	for dim := range filters {
		dims = append(dims, dim)
	}
	sort.Strings(dims)
	return dims
}
