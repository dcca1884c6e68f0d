package status

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cloudledger/costsync/clock"
	"github.com/cloudledger/costsync/model"
)

type service struct {
	clock clock.Clock

	mu        sync.RWMutex
	current   model.SyncStatus
	providers map[model.ProviderTag]model.ProviderSyncState

	syncsTotal       *prometheus.CounterVec
	recordsProcessed *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	syncDuration     prometheus.Histogram
	lastSyncTime     prometheus.Gauge
}

// StatusService tracks the outcome of every sync cycle and exposes it
// both as a queryable snapshot and as Prometheus metrics.
type StatusService interface {
	RecordSyncStart()
	RecordSyncResult(report *model.SyncReport)
	Status() model.SyncStatus
}
