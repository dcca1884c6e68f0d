package gcpbilling

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

func testService() *service {
	return &service{
		projectID:      "my-project",
		billingAccount: "012345-6789AB-CDEF01",
		dataset:        "billing_export",
	}
}

func testQuery() model.CostQuery {
	return model.CostQuery{
		Window: model.TimeWindow{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		Granularity: model.GranularityDaily,
		GroupBy:     []string{"service", "region"},
	}
}

func TestBuildBillingQuery(t *testing.T) {
	sql, params, err := testService().buildBillingQuery(testQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The export table name replaces dashes in the billing account.
	if !strings.Contains(sql, "`my-project.billing_export.gcp_billing_export_v1_012345_6789AB_CDEF01`") {
		t.Errorf("unexpected table reference in query:\n%s", sql)
	}
	if !strings.Contains(sql, "SUM(cost) AS total_cost") {
		t.Errorf("expected cost aggregation in query:\n%s", sql)
	}
	if !strings.Contains(sql, "service.description AS service") {
		t.Errorf("expected service grouping in query:\n%s", sql)
	}
	if !strings.Contains(sql, "location.region AS region") {
		t.Errorf("expected region grouping in query:\n%s", sql)
	}
	if !strings.Contains(sql, "DATE(usage_start_time) >= @startDate") {
		t.Errorf("expected parameterized start date in query:\n%s", sql)
	}

	if len(params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(params))
	}
	if params[0].Name != "startDate" || params[0].Value != "2024-01-01" {
		t.Errorf("unexpected start parameter: %+v", params[0])
	}
	if params[1].Name != "endDate" || params[1].Value != "2024-01-31" {
		t.Errorf("unexpected end parameter: %+v", params[1])
	}
}

func TestBuildBillingQueryFilters(t *testing.T) {
	query := testQuery()
	query.Filters = map[string][]string{
		"service": {"BigQuery"},
		"region":  {"us-central1", "us-east1"},
	}

	sql, params, err := testService().buildBillingQuery(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(sql, "IN UNNEST(@filter0)") || !strings.Contains(sql, "IN UNNEST(@filter1)") {
		t.Errorf("expected two filter conditions in query:\n%s", sql)
	}

	// Filter dims are sorted, so region comes before service.
	if len(params) != 4 {
		t.Fatalf("expected 4 parameters, got %d", len(params))
	}
	if params[2].Name != "filter0" {
		t.Errorf("unexpected filter parameter name: %s", params[2].Name)
	}
	values, _ := params[2].Value.([]string)
	if len(values) != 2 || values[0] != "us-central1" {
		t.Errorf("expected region values first, got %v", params[2].Value)
	}
}

func TestBuildBillingQueryGranularities(t *testing.T) {
	tests := []struct {
		granularity model.Granularity
		fragment    string
	}{
		{model.GranularityDaily, "FORMAT_DATE('%Y-%m-%d'"},
		{model.GranularityMonthly, "FORMAT_DATE('%Y-%m-01'"},
		{model.GranularityHourly, "TIMESTAMP_TRUNC(usage_start_time, HOUR)"},
	}

	for _, tt := range tests {
		query := testQuery()
		query.Granularity = tt.granularity

		sql, _, err := testService().buildBillingQuery(query)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.granularity, err)
			continue
		}
		if !strings.Contains(sql, tt.fragment) {
			t.Errorf("%s: expected %q in query:\n%s", tt.granularity, tt.fragment, sql)
		}
	}
}

func TestBuildBillingQueryUnknownGranularity(t *testing.T) {
	query := testQuery()
	query.Granularity = model.Granularity("weekly")

	_, _, err := testService().buildBillingQuery(query)

	var granErr *costsync.UnsupportedGranularityError
	if !errors.As(err, &granErr) {
		t.Fatalf("expected UnsupportedGranularityError, got %v", err)
	}
}

func TestBuildBillingQueryStripsAccountPrefix(t *testing.T) {
	svc := testService()
	svc.billingAccount = "billingAccounts/012345-6789AB-CDEF01"

	sql, _, err := svc.buildBillingQuery(testQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, "gcp_billing_export_v1_012345_6789AB_CDEF01") {
		t.Errorf("expected prefix stripped from table name:\n%s", sql)
	}
}
