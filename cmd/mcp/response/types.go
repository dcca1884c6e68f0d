package response

// ProviderResult is the wire form of one provider pipeline outcome.
type ProviderResult struct {
	Status           string `json:"status"`
	RecordsProcessed int    `json:"records_processed"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// SyncPeriod is the billing window covered by a sync, ISO-8601 dates.
type SyncPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// SyncReport is the wire form of one consolidated sync outcome.
type SyncReport struct {
	SyncID                string                    `json:"sync_id"`
	Status                string                    `json:"status"`
	TotalRecordsProcessed int                       `json:"total_records_processed"`
	ProviderResults       map[string]ProviderResult `json:"provider_results"`
	SyncPeriod            SyncPeriod                `json:"sync_period"`
	StartedAt             string                    `json:"started_at"`
	DurationSeconds       float64                   `json:"duration_seconds"`
}

// ProviderState is the wire form of one provider's last-known state.
type ProviderState struct {
	LastStatus       string `json:"last_status"`
	LastRecords      int    `json:"last_records"`
	LastError        string `json:"last_error,omitempty"`
	LastSuccessAt    string `json:"last_success_at,omitempty"`
	LastAttemptAt    string `json:"last_attempt_at,omitempty"`
	ConsecutiveFails int    `json:"consecutive_fails"`
}

// SyncStatus is the wire form of the tracker snapshot.
type SyncStatus struct {
	LastSyncID     string                   `json:"last_sync_id,omitempty"`
	LastSyncAt     string                   `json:"last_sync_at,omitempty"`
	LastTotal      int                      `json:"last_total_records"`
	SyncInProgress bool                     `json:"sync_in_progress"`
	SyncPeriod     *SyncPeriod              `json:"last_sync_period,omitempty"`
	Providers      map[string]ProviderState `json:"providers"`
}

// ProviderValidation is the wire form of one credential check.
type ProviderValidation struct {
	Provider    string `json:"provider"`
	Valid       bool   `json:"valid"`
	AccountID   string `json:"account_id,omitempty"`
	AccountName string `json:"account_name,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ValidationSummary aggregates credential checks across providers.
type ValidationSummary struct {
	Providers []ProviderValidation `json:"providers"`
	AllValid  bool                 `json:"all_valid"`
}

// ProviderCost is one provider's synced cost total.
type ProviderCost struct {
	Provider string  `json:"provider"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// CostBreakdown aggregates synced cost totals per provider.
type CostBreakdown struct {
	Providers []ProviderCost `json:"providers"`
	Total     float64        `json:"total"`
	Currency  string         `json:"currency"`
}
