package response

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cloudledger/costsync/model"
)

const dateLayout = "2006-01-02"

// ConvertSyncReport maps the domain report onto the wire schema.
func ConvertSyncReport(report *model.SyncReport) SyncReport {
	results := make(map[string]ProviderResult, len(report.ProviderResults))
	for provider, result := range report.ProviderResults {
		results[string(provider)] = ProviderResult{
			Status:           result.Status,
			RecordsProcessed: result.RecordsProcessed,
			ErrorMessage:     result.ErrorMessage,
		}
	}

	return SyncReport{
		SyncID:                report.SyncID,
		Status:                report.Status,
		TotalRecordsProcessed: report.TotalRecordsProcessed,
		ProviderResults:       results,
		SyncPeriod: SyncPeriod{
			StartDate: report.Window.Start.Format(dateLayout),
			EndDate:   report.Window.End.Format(dateLayout),
		},
		StartedAt:       report.StartedAt.Format(time.RFC3339),
		DurationSeconds: report.Duration.Seconds(),
	}
}

// ConvertSyncStatus maps the tracker snapshot onto the wire schema.
func ConvertSyncStatus(status model.SyncStatus) SyncStatus {
	providers := make(map[string]ProviderState, len(status.Providers))
	for provider, state := range status.Providers {
		providers[string(provider)] = ProviderState{
			LastStatus:       state.LastStatus,
			LastRecords:      state.LastRecords,
			LastError:        state.LastError,
			LastSuccessAt:    formatTime(state.LastSuccessAt),
			LastAttemptAt:    formatTime(state.LastAttemptAt),
			ConsecutiveFails: state.ConsecutiveFails,
		}
	}

	out := SyncStatus{
		LastSyncID:     status.LastSyncID,
		LastSyncAt:     formatTime(status.LastSyncAt),
		LastTotal:      status.LastTotal,
		SyncInProgress: status.SyncInProgress,
		Providers:      providers,
	}

	if !status.LastWindow.Start.IsZero() {
		out.SyncPeriod = &SyncPeriod{
			StartDate: status.LastWindow.Start.Format(dateLayout),
			EndDate:   status.LastWindow.End.Format(dateLayout),
		}
	}

	return out
}

// ConvertValidations maps credential check results onto the wire schema.
func ConvertValidations(results []model.ProviderValidation) ValidationSummary {
	summary := ValidationSummary{AllValid: true}

	for _, result := range results {
		validation := ProviderValidation{
			Provider: string(result.Provider),
			Valid:    result.Error == nil,
		}
		if result.Error != nil {
			validation.Error = result.Error.Error()
			summary.AllValid = false
		} else if result.Account != nil {
			validation.AccountID = result.Account.AccountID
			validation.AccountName = result.Account.AccountName
		}
		summary.Providers = append(summary.Providers, validation)
	}

	sort.Slice(summary.Providers, func(i, j int) bool {
		return summary.Providers[i].Provider < summary.Providers[j].Provider
	})

	return summary
}

// ConvertCostBreakdown maps per-provider cost totals onto the wire
// schema.
func ConvertCostBreakdown(totals map[model.ProviderTag]decimal.Decimal, currency string) CostBreakdown {
	breakdown := CostBreakdown{Currency: currency}

	grand := decimal.Decimal{}
	for provider, total := range totals {
		amount, _ := total.Float64()
		breakdown.Providers = append(breakdown.Providers, ProviderCost{
			Provider: string(provider),
			Total:    amount,
			Currency: currency,
		})
		grand = grand.Add(total)
	}

	sort.Slice(breakdown.Providers, func(i, j int) bool {
		return breakdown.Providers[i].Provider < breakdown.Providers[j].Provider
	})

	breakdown.Total, _ = grand.Float64()
	return breakdown
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
