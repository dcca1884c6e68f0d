package awscostexplorer

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

const dateFormat = "2006-01-02"

// Metrics requested on every query. BlendedCost is the amount the
// normalizer requires; UsageQuantity feeds the optional usage pair.
var queryMetrics = []string{"BlendedCost", "UsageQuantity"}

func NewService(awsconfig aws.Config) *service {
	client := costexplorer.NewFromConfig(awsconfig)
	return &service{
		client: client,
	}
}

func (s *service) Provider() model.ProviderTag {
	return model.ProviderAWS
}

// FetchCostData queries Cost Explorer for the window, following
// NextPageToken until the result set is exhausted. Records keep the AWS
// shape: a flat keyed list of dimension values plus keyed metric maps.
func (s *service) FetchCostData(ctx context.Context, query model.CostQuery) ([]model.RawRecord, error) {
	granularity, err := s.mapGranularity(query.Granularity)
	if err != nil {
		return nil, err
	}

	groupBy, dims := s.buildGroupBy(query.GroupBy)

	input := &costexplorer.GetCostAndUsageInput{
		Granularity: granularity,
		TimePeriod: &types.DateInterval{
			Start: aws.String(query.Window.Start.Format(dateFormat)),
			End:   aws.String(query.Window.End.Format(dateFormat)),
		},
		Metrics: queryMetrics,
		GroupBy: groupBy,
	}

	if filter := s.buildFilter(query.Filters); filter != nil {
		input.Filter = filter
	}

	var records []model.RawRecord

	for {
		output, err := s.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, &costsync.FetchError{Provider: model.ProviderAWS, Err: err}
		}

		records = append(records, s.collectRecords(output, dims)...)

		if output.NextPageToken == nil || *output.NextPageToken == "" {
			break
		}
		input.NextPageToken = output.NextPageToken
	}

	return records, nil
}

func (s *service) mapGranularity(g model.Granularity) (types.Granularity, error) {
	switch g {
	case model.GranularityDaily:
		return types.GranularityDaily, nil
	case model.GranularityMonthly:
		return types.GranularityMonthly, nil
	case model.GranularityHourly:
		return types.GranularityHourly, nil
	default:
		return "", &costsync.UnsupportedGranularityError{Provider: model.ProviderAWS, Granularity: g}
	}
}

// buildGroupBy translates canonical dimension names into Cost Explorer
// group definitions. Dimensions the vendor does not know are ignored.
// The returned dims slice preserves order so keys can be mapped back
// positionally.
func (s *service) buildGroupBy(groupBy []string) ([]types.GroupDefinition, []string) {
	var defs []types.GroupDefinition
	var dims []string

	for _, dim := range groupBy {
		key, ok := dimensionKey(dim)
		if !ok {
			continue
		}
		defs = append(defs, types.GroupDefinition{
			Key:  aws.String(key),
			Type: types.GroupDefinitionTypeDimension,
		})
		dims = append(dims, strings.ToLower(dim))
	}

	return defs, dims
}

// buildFilter converts the dimension->values map into a boolean AND of
// per-dimension IN-clauses. A single clause is attached directly; Cost
// Explorer rejects And expressions with one member.
func (s *service) buildFilter(filters map[string][]string) *types.Expression {
	if len(filters) == 0 {
		return nil
	}

	var clauses []types.Expression
	for dim, values := range filters {
		key, ok := dimensionKey(dim)
		if !ok || len(values) == 0 {
			continue
		}
		clauses = append(clauses, types.Expression{
			Dimensions: &types.DimensionValues{
				Key:    types.Dimension(key),
				Values: values,
			},
		})
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return &clauses[0]
	default:
		return &types.Expression{And: clauses}
	}
}

func (s *service) collectRecords(output *costexplorer.GetCostAndUsageOutput, dims []string) []model.RawRecord {
	var records []model.RawRecord

	for _, timeResult := range output.ResultsByTime {
		start := aws.ToString(timeResult.TimePeriod.Start)
		end := aws.ToString(timeResult.TimePeriod.End)

		if len(timeResult.Groups) == 0 {
			// Ungrouped queries report one total per time slice.
			records = append(records, rawRecord(start, end, nil, dims, timeResult.Total))
			continue
		}

		for _, group := range timeResult.Groups {
			records = append(records, rawRecord(start, end, group.Keys, dims, group.Metrics))
		}
	}

	return records
}

// rawRecord preserves the Cost Explorer response shape: dimension values
// as a flat keyed list plus metric name -> {amount, unit} maps. The
// normalizer owns interpretation.
func rawRecord(start, end string, keys []string, dims []string, metrics map[string]types.MetricValue) model.RawRecord {
	metricValues := make(map[string]any, len(metrics))
	for name, value := range metrics {
		metricValues[name] = map[string]any{
			"amount": aws.ToString(value.Amount),
			"unit":   aws.ToString(value.Unit),
		}
	}

	return model.RawRecord{
		"time_period_start": start,
		"time_period_end":   end,
		"keys":              keys,
		"group_by":          dims,
		"metrics":           metricValues,
	}
}

// dimensionKey maps a canonical dimension name to the Cost Explorer
// dimension key.
func dimensionKey(dim string) (string, bool) {
	switch strings.ToLower(dim) {
	case "service":
		return "SERVICE", true
	case "region":
		return "REGION", true
	case "availability_zone", "az":
		return "AZ", true
	case "account", "linked_account":
		return "LINKED_ACCOUNT", true
	case "usage_type":
		return "USAGE_TYPE", true
	default:
		return "", false
	}
}
