package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProviderTag identifies one of the supported cloud billing providers.
// The set is closed: adapter lookup is done against this tag, never
// against free-form strings.
type ProviderTag string

const (
	ProviderAWS   ProviderTag = "aws"
	ProviderAzure ProviderTag = "azure"
	ProviderGCP   ProviderTag = "gcp"
)

// AllProviders returns the full provider set in stable order.
func AllProviders() []ProviderTag {
	return []ProviderTag{ProviderAWS, ProviderAzure, ProviderGCP}
}

// ParseProviderTag maps a caller-supplied name onto the closed tag set.
// The second return value is false for names outside the set.
func ParseProviderTag(name string) (ProviderTag, bool) {
	switch ProviderTag(strings.ToLower(strings.TrimSpace(name))) {
	case ProviderAWS:
		return ProviderAWS, true
	case ProviderAzure:
		return ProviderAzure, true
	case ProviderGCP:
		return ProviderGCP, true
	default:
		return "", false
	}
}

// Granularity is the time bucketing requested from an adapter. Vendor
// support varies; adapters reject granularities they cannot serve.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
	GranularityHourly  Granularity = "hourly"
)

// ParseGranularity validates a configured granularity value.
func ParseGranularity(name string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(name))) {
	case GranularityDaily:
		return GranularityDaily, nil
	case GranularityMonthly:
		return GranularityMonthly, nil
	case GranularityHourly:
		return GranularityHourly, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", name)
	}
}

// TimeWindow bounds the billing period covered by one sync cycle.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Validate enforces the start <= end invariant.
func (w TimeWindow) Validate() error {
	if w.Start.After(w.End) {
		return fmt.Errorf("time window start %s is after end %s",
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// DefaultWindow returns the last `days` days ending at now.
func DefaultWindow(now time.Time, days int) TimeWindow {
	return TimeWindow{
		Start: now.AddDate(0, 0, -days),
		End:   now,
	}
}

// CostQuery describes one adapter fetch: the billing window, the time
// bucketing and the dimensions the vendor should group and filter by.
type CostQuery struct {
	Window      TimeWindow
	Granularity Granularity
	GroupBy     []string
	Filters     map[string][]string
}

// RawRecord is a provider-shaped cost data unit exactly as the adapter
// received it. No shared schema is guaranteed; only the normalizer may
// interpret its keys.
type RawRecord map[string]any

// RawSnapshot retains the original RawRecord alongside the time it was
// normalized, for audit and debugging.
type RawSnapshot struct {
	Record      RawRecord
	ProcessedAt time.Time
}

// CostRecord is the canonical, vendor-agnostic cost data unit. It is
// constructed exactly once by the normalizer and immutable afterwards.
type CostRecord struct {
	Provider     ProviderTag
	Service      string
	Region       string
	ResourceID   string
	CostAmount   decimal.Decimal
	CostCurrency string

	// Usage pair is present only when the source reported usage.
	UsageQuantity *decimal.Decimal
	UsageUnit     string

	StartDate time.Time
	EndDate   time.Time

	// Tags carries the source dimension values for traceability.
	Tags map[string]string

	RawSource RawSnapshot
}
