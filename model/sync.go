package model

import "time"

// Pipeline outcome statuses reported per provider.
const (
	PipelineStatusSuccess = "success"
	PipelineStatusError   = "error"
)

// SyncStatusCompleted is the aggregate status of every finished cycle,
// regardless of per-provider failures. Callers inspect ProviderResults
// to learn of degraded sync quality.
const SyncStatusCompleted = "completed"

// ProviderSyncResult is the terminal outcome of one provider pipeline.
type ProviderSyncResult struct {
	Provider         ProviderTag
	Status           string
	RecordsProcessed int
	ErrorMessage     string
}

// SyncReport is the consolidated, always-returned outcome of one sync
// cycle. TotalRecordsProcessed equals the sum of the per-provider counts.
type SyncReport struct {
	SyncID                string
	Status                string
	TotalRecordsProcessed int
	ProviderResults       map[ProviderTag]ProviderSyncResult
	Window                TimeWindow
	StartedAt             time.Time
	Duration              time.Duration
}

// SyncStatus is the tracker's last-sync snapshot for observability.
type SyncStatus struct {
	LastSyncID     string
	LastSyncAt     time.Time
	LastWindow     TimeWindow
	LastTotal      int
	SyncInProgress bool
	Providers      map[ProviderTag]ProviderSyncState
}

// ProviderSyncState is the tracker's per-provider last-known state.
type ProviderSyncState struct {
	LastStatus       string
	LastRecords      int
	LastError        string
	LastSuccessAt    time.Time
	LastAttemptAt    time.Time
	ConsecutiveFails int
}
