package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cloudledger/costsync/clock"
	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

// unknownValue substitutes missing categorical dimensions.
const unknownValue = "Unknown"

func NewService(clk clock.Clock, defaultCurrency string) *service {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &service{
		clock:           clk,
		defaultCurrency: defaultCurrency,
	}
}

// Normalize maps one RawRecord onto the canonical CostRecord. This is
// the only place provider shapes are interpreted: AWS delivers
// dimension values as a flat keyed list, Azure delivers positional
// columns, GCP delivers pre-grouped query rows. Missing optional fields
// get defaults; a missing or non-numeric cost amount fails the record.
func (s *service) Normalize(raw model.RawRecord, provider model.ProviderTag) (*model.CostRecord, error) {
	var (
		record *model.CostRecord
		err    error
	)

	switch provider {
	case model.ProviderAWS:
		record, err = s.normalizeAWS(raw)
	case model.ProviderAzure:
		record, err = s.normalizeAzure(raw)
	case model.ProviderGCP:
		record, err = s.normalizeGCP(raw)
	default:
		return nil, &costsync.NormalizationError{
			Provider: provider,
			Field:    "provider",
			Reason:   "has no normalization branch",
		}
	}
	if err != nil {
		return nil, err
	}

	record.Provider = provider
	if record.Service == "" {
		record.Service = unknownValue
	}
	if record.Region == "" {
		record.Region = unknownValue
	}
	if record.CostCurrency == "" {
		record.CostCurrency = s.defaultCurrency
	}
	record.RawSource = model.RawSnapshot{
		Record:      raw,
		ProcessedAt: s.clock.Now(),
	}

	return record, nil
}

// normalizeAWS interprets the Cost Explorer shape: a flat `keys` list
// positionally matched to the requested `group_by` dimensions, plus
// keyed metric maps.
func (s *service) normalizeAWS(raw model.RawRecord) (*model.CostRecord, error) {
	metrics, _ := raw["metrics"].(map[string]any)

	cost, currency, ok := awsMetric(metrics, "BlendedCost")
	if !ok {
		return nil, &costsync.NormalizationError{
			Provider: model.ProviderAWS,
			Field:    "cost_amount",
			Reason:   "missing or non-numeric BlendedCost metric",
		}
	}

	record := &model.CostRecord{
		CostAmount:   cost,
		CostCurrency: currency,
		Tags:         map[string]string{},
	}

	if usage, unit, ok := awsMetric(metrics, "UsageQuantity"); ok {
		record.UsageQuantity = &usage
		record.UsageUnit = unit
	}

	keys := toStringSlice(raw["keys"])
	dims := toStringSlice(raw["group_by"])
	for i, key := range keys {
		if i >= len(dims) {
			break
		}
		record.Tags[dims[i]] = key
	}
	record.Service = record.Tags["service"]
	record.Region = record.Tags["region"]
	record.ResourceID = record.Tags["resource_id"]

	record.StartDate, record.EndDate = s.parseBounds(
		toString(raw["time_period_start"]),
		toString(raw["time_period_end"]),
	)

	return record, nil
}

// awsMetric pulls one {amount, unit} metric map out of the keyed metric
// set.
func awsMetric(metrics map[string]any, name string) (decimal.Decimal, string, bool) {
	metric, ok := metrics[name].(map[string]any)
	if !ok {
		return decimal.Decimal{}, "", false
	}
	amount, ok := toDecimal(metric["amount"])
	if !ok {
		return decimal.Decimal{}, "", false
	}
	return amount, toString(metric["unit"]), true
}

// normalizeAzure interprets the Cost Management shape: one positional
// row plus the column list, so every value is looked up by column index.
func (s *service) normalizeAzure(raw model.RawRecord) (*model.CostRecord, error) {
	columns := toStringSlice(raw["columns"])
	row := toAnySlice(raw["row"])

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}

	cell := func(name string) (any, bool) {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return nil, false
		}
		return row[i], true
	}

	costCell, ok := cell("Cost")
	if !ok {
		return nil, &costsync.NormalizationError{
			Provider: model.ProviderAzure,
			Field:    "cost_amount",
			Reason:   "missing Cost column",
		}
	}
	cost, ok := toDecimal(costCell)
	if !ok {
		return nil, &costsync.NormalizationError{
			Provider: model.ProviderAzure,
			Field:    "cost_amount",
			Reason:   fmt.Sprintf("non-numeric Cost value %v", costCell),
		}
	}

	record := &model.CostRecord{
		CostAmount: cost,
		Tags:       map[string]string{},
	}

	if v, ok := cell("Currency"); ok {
		record.CostCurrency = toString(v)
	}

	for column, tag := range azureDimensionTags {
		if v, ok := cell(column); ok {
			if value := toString(v); value != "" {
				record.Tags[tag] = value
			}
		}
	}
	record.Service = record.Tags["service"]
	record.Region = record.Tags["region"]
	record.ResourceID = record.Tags["resource_id"]

	// UsageDate arrives as a bare number like 20240131; the billing
	// period both starts and ends on it.
	if v, ok := cell("UsageDate"); ok {
		if t, ok := parseCompactDate(toString(v)); ok {
			record.StartDate, record.EndDate = t, t
		}
	}
	if record.StartDate.IsZero() {
		if v, ok := cell("BillingMonth"); ok {
			if t, ok := parseTime(toString(v)); ok {
				record.StartDate, record.EndDate = t, t
			}
		}
	}
	if record.StartDate.IsZero() {
		now := s.clock.Now()
		record.StartDate, record.EndDate = now, now
	}

	return record, nil
}

var azureDimensionTags = map[string]string{
	"ServiceName":       "service",
	"ResourceLocation":  "region",
	"ResourceId":        "resource_id",
	"ResourceGroupName": "resource_group",
	"MeterCategory":     "meter_category",
}

// normalizeGCP interprets the billing-export shape: a pre-grouped query
// row keyed by column alias.
func (s *service) normalizeGCP(raw model.RawRecord) (*model.CostRecord, error) {
	cost, ok := toDecimal(raw["total_cost"])
	if !ok {
		return nil, &costsync.NormalizationError{
			Provider: model.ProviderGCP,
			Field:    "cost_amount",
			Reason:   fmt.Sprintf("missing or non-numeric total_cost value %v", raw["total_cost"]),
		}
	}

	record := &model.CostRecord{
		CostAmount:   cost,
		CostCurrency: toString(raw["currency"]),
		Service:      toString(raw["service"]),
		Region:       toString(raw["region"]),
		ResourceID:   toString(raw["resource_name"]),
		Tags:         map[string]string{},
	}

	for _, tag := range []string{"service", "region", "resource_name", "project_id"} {
		if value := toString(raw[tag]); value != "" {
			record.Tags[tag] = value
		}
	}

	if usage, ok := toDecimal(raw["usage_amount"]); ok {
		record.UsageQuantity = &usage
		record.UsageUnit = toString(raw["usage_unit"])
	}

	record.StartDate, record.EndDate = s.parseBounds(
		toString(raw["usage_start"]),
		toString(raw["usage_start"]),
	)

	return record, nil
}

// parseBounds parses the period bounds, substituting the current
// process time for missing or unparseable dates and collapsing a single
// supplied date onto both bounds.
func (s *service) parseBounds(start, end string) (time.Time, time.Time) {
	startTime, startOK := parseTime(start)
	endTime, endOK := parseTime(end)

	switch {
	case startOK && endOK:
		return startTime, endTime
	case startOK:
		return startTime, startTime
	case endOK:
		return endTime, endTime
	default:
		now := s.clock.Now()
		return now, now
	}
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseCompactDate handles Azure's numeric YYYYMMDD usage dates,
// tolerating float formatting like 2.0240131e+07.
func parseCompactDate(value string) (time.Time, bool) {
	var digits strings.Builder
	for _, ch := range value {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	compact := digits.String()
	if len(compact) < 8 {
		return parseTime(value)
	}
	t, err := time.Parse("20060102", compact[:8])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		if v == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// Azure reports numeric dates; keep them digit-exact.
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, toString(item))
		}
		return out
	default:
		return nil
	}
}

func toAnySlice(value any) []any {
	if v, ok := value.([]any); ok {
		return v
	}
	return nil
}
