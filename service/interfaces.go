package service

import (
	"context"

	"github.com/cloudledger/costsync/model"
)

// CostSource is the uniform provider adapter capability. One
// implementation exists per vendor; each owns its provider-specific
// auth, query building and pagination, and returns raw provider-shaped
// records without interpreting them.
type CostSource interface {
	// Provider returns the tag this adapter serves.
	Provider() model.ProviderTag

	// FetchCostData retrieves raw cost records for the query window.
	// Transport, auth and malformed-response failures surface as a
	// *FetchError. Adapters never retry; that decision sits above them.
	FetchCostData(ctx context.Context, query model.CostQuery) ([]model.RawRecord, error)
}

// IdentityService provides cloud account/project identity information,
// used to validate provider credentials.
type IdentityService interface {
	GetAccountInfo(ctx context.Context) (*model.AccountInfo, error)
}

// Normalizer converts one provider-shaped RawRecord into the canonical
// CostRecord. Implementations are deterministic for a given record.
type Normalizer interface {
	Normalize(raw model.RawRecord, provider model.ProviderTag) (*model.CostRecord, error)
}

// RecordSink accepts normalized records for durable storage. The
// orchestrator only depends on the error for counting a record as
// processed.
type RecordSink interface {
	Store(ctx context.Context, record model.CostRecord) error
}

// SyncTracker records last-sync metadata after each cycle.
type SyncTracker interface {
	RecordSyncStart()
	RecordSyncResult(report *model.SyncReport)
	Status() model.SyncStatus
}
