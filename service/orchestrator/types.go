package orchestrator

import (
	"context"

	"github.com/cloudledger/costsync/clock"
	"github.com/cloudledger/costsync/logger"
	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

type service struct {
	sources    map[model.ProviderTag]costsync.CostSource
	normalizer costsync.Normalizer
	sink       costsync.RecordSink
	tracker    costsync.SyncTracker
	logger     *logger.Logger

	clock       clock.Clock
	windowDays  int
	granularity model.Granularity
	groupBy     []string
	workerLimit int
}

// Options tunes the defaults applied when a sync request leaves them
// unspecified.
type Options struct {
	Clock       clock.Clock
	WindowDays  int
	Granularity model.Granularity
	GroupBy     []string

	// WorkerLimit caps how many provider pipelines run at once.
	WorkerLimit int
}

// OrchestratorService runs multi-provider sync cycles.
type OrchestratorService interface {
	// Sync fans out to every requested provider concurrently and
	// consolidates the outcomes. It always returns a report: provider
	// failures degrade the report, they never abort the cycle.
	Sync(ctx context.Context, window *model.TimeWindow, providers []string) *model.SyncReport

	// Status returns the tracker's last-sync snapshot.
	Status() model.SyncStatus
}
