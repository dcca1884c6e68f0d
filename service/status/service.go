package status

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cloudledger/costsync/clock"
	"github.com/cloudledger/costsync/model"
)

func NewService(clk clock.Clock, reg prometheus.Registerer) *service {
	s := &service{
		clock:     clk,
		providers: make(map[model.ProviderTag]model.ProviderSyncState),
		syncsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costsync",
			Name:      "syncs_total",
			Help:      "Number of completed sync cycles.",
		}, []string{"status"}),
		recordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costsync",
			Name:      "records_processed_total",
			Help:      "Number of cost records normalized and stored, per provider.",
		}, []string{"provider"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costsync",
			Name:      "provider_errors_total",
			Help:      "Number of failed provider pipelines, per provider.",
		}, []string{"provider"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "costsync",
			Name:      "sync_duration_seconds",
			Help:      "Wall-clock duration of sync cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		lastSyncTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "costsync",
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the most recent completed sync cycle.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			s.syncsTotal,
			s.recordsProcessed,
			s.providerErrors,
			s.syncDuration,
			s.lastSyncTime,
		)
	}

	return s
}

// RecordSyncStart implements service.SyncTracker
func (s *service) RecordSyncStart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.SyncInProgress = true
}

// RecordSyncResult implements service.SyncTracker
func (s *service) RecordSyncResult(report *model.SyncReport) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.SyncInProgress = false
	s.current.LastSyncID = report.SyncID
	s.current.LastSyncAt = now
	s.current.LastWindow = report.Window
	s.current.LastTotal = report.TotalRecordsProcessed

	for provider, result := range report.ProviderResults {
		state := s.providers[provider]
		state.LastStatus = result.Status
		state.LastRecords = result.RecordsProcessed
		state.LastError = result.ErrorMessage
		state.LastAttemptAt = now

		if result.Status == model.PipelineStatusSuccess {
			state.LastSuccessAt = now
			state.ConsecutiveFails = 0
			s.recordsProcessed.WithLabelValues(string(provider)).
				Add(float64(result.RecordsProcessed))
		} else {
			state.ConsecutiveFails++
			s.providerErrors.WithLabelValues(string(provider)).Inc()
		}

		s.providers[provider] = state
	}

	s.syncsTotal.WithLabelValues(report.Status).Inc()
	s.syncDuration.Observe(report.Duration.Seconds())
	s.lastSyncTime.Set(float64(now.Unix()))
}

// Status implements service.SyncTracker
func (s *service) Status() model.SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.current
	snapshot.Providers = make(map[model.ProviderTag]model.ProviderSyncState, len(s.providers))
	for provider, state := range s.providers {
		snapshot.Providers[provider] = state
	}
	return snapshot
}
