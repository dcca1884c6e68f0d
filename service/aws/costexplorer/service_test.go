package awscostexplorer

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

func TestMapGranularity(t *testing.T) {
	svc := &service{}

	tests := []struct {
		in   model.Granularity
		want types.Granularity
	}{
		{model.GranularityDaily, types.GranularityDaily},
		{model.GranularityMonthly, types.GranularityMonthly},
		{model.GranularityHourly, types.GranularityHourly},
	}

	for _, tt := range tests {
		got, err := svc.mapGranularity(tt.in)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.in, tt.want, got)
		}
	}

	_, err := svc.mapGranularity(model.Granularity("weekly"))
	var granErr *costsync.UnsupportedGranularityError
	if !errors.As(err, &granErr) {
		t.Errorf("expected UnsupportedGranularityError, got %v", err)
	}
}

func TestBuildGroupBy(t *testing.T) {
	svc := &service{}

	defs, dims := svc.buildGroupBy([]string{"service", "region", "nonsense", "az"})

	if len(defs) != 3 {
		t.Fatalf("expected 3 group definitions, got %d", len(defs))
	}
	if got := aws.ToString(defs[0].Key); got != "SERVICE" {
		t.Errorf("expected SERVICE, got %s", got)
	}
	if got := aws.ToString(defs[2].Key); got != "AZ" {
		t.Errorf("expected AZ, got %s", got)
	}

	// dims must track the accepted dimensions in order, for positional
	// key mapping.
	want := []string{"service", "region", "az"}
	if len(dims) != len(want) {
		t.Fatalf("expected dims %v, got %v", want, dims)
	}
	for i := range want {
		if dims[i] != want[i] {
			t.Errorf("dims[%d]: expected %s, got %s", i, want[i], dims[i])
		}
	}
}

func TestBuildFilter(t *testing.T) {
	svc := &service{}

	if filter := svc.buildFilter(nil); filter != nil {
		t.Errorf("expected nil filter for empty map, got %+v", filter)
	}

	single := svc.buildFilter(map[string][]string{
		"service": {"Amazon S3", "AmazonEC2"},
	})
	if single == nil || single.And != nil {
		t.Fatalf("single clause must be attached directly, got %+v", single)
	}
	if single.Dimensions.Key != types.Dimension("SERVICE") {
		t.Errorf("expected SERVICE dimension, got %s", single.Dimensions.Key)
	}
	if len(single.Dimensions.Values) != 2 {
		t.Errorf("expected 2 values, got %v", single.Dimensions.Values)
	}

	multi := svc.buildFilter(map[string][]string{
		"service": {"Amazon S3"},
		"region":  {"us-east-1"},
	})
	if multi == nil || len(multi.And) != 2 {
		t.Fatalf("expected an And of 2 clauses, got %+v", multi)
	}

	unknownOnly := svc.buildFilter(map[string][]string{
		"nonsense": {"x"},
	})
	if unknownOnly != nil {
		t.Errorf("unknown dimensions must not produce a filter, got %+v", unknownOnly)
	}
}

func TestCollectRecords(t *testing.T) {
	svc := &service{}
	dims := []string{"service", "region"}

	output := &costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{
			{
				TimePeriod: &types.DateInterval{
					Start: aws.String("2024-01-01"),
					End:   aws.String("2024-01-02"),
				},
				Groups: []types.Group{
					{
						Keys: []string{"Amazon S3", "us-east-1"},
						Metrics: map[string]types.MetricValue{
							"BlendedCost": {Amount: aws.String("1.25"), Unit: aws.String("USD")},
						},
					},
					{
						Keys: []string{"AmazonEC2", "us-east-1"},
						Metrics: map[string]types.MetricValue{
							"BlendedCost": {Amount: aws.String("9.00"), Unit: aws.String("USD")},
						},
					},
				},
			},
		},
	}

	records := svc.collectRecords(output, dims)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first["time_period_start"] != "2024-01-01" {
		t.Errorf("unexpected period start: %v", first["time_period_start"])
	}
	keys, _ := first["keys"].([]string)
	if len(keys) != 2 || keys[0] != "Amazon S3" {
		t.Errorf("unexpected keys: %v", first["keys"])
	}
	metrics, _ := first["metrics"].(map[string]any)
	cost, _ := metrics["BlendedCost"].(map[string]any)
	if cost["amount"] != "1.25" || cost["unit"] != "USD" {
		t.Errorf("unexpected metric: %v", cost)
	}
}

func TestCollectRecordsUngroupedTotal(t *testing.T) {
	svc := &service{}

	output := &costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{
			{
				TimePeriod: &types.DateInterval{
					Start: aws.String("2024-01-01"),
					End:   aws.String("2024-02-01"),
				},
				Total: map[string]types.MetricValue{
					"BlendedCost": {Amount: aws.String("100.00"), Unit: aws.String("USD")},
				},
			},
		},
	}

	records := svc.collectRecords(output, nil)
	if len(records) != 1 {
		t.Fatalf("expected 1 total record, got %d", len(records))
	}
	if keys, _ := records[0]["keys"].([]string); len(keys) != 0 {
		t.Errorf("ungrouped total must carry no keys, got %v", keys)
	}
}
