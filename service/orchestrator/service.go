package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/cloudledger/costsync/clock"
	"github.com/cloudledger/costsync/logger"
	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

const (
	defaultWindowDays  = 30
	defaultWorkerLimit = 4
)

func NewService(
	sources map[model.ProviderTag]costsync.CostSource,
	normalizer costsync.Normalizer,
	sink costsync.RecordSink,
	tracker costsync.SyncTracker,
	log *logger.Logger,
	opts Options,
) *service {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = defaultWindowDays
	}
	if opts.Granularity == "" {
		opts.Granularity = model.GranularityDaily
	}
	if len(opts.GroupBy) == 0 {
		opts.GroupBy = []string{"service", "region"}
	}
	if opts.WorkerLimit <= 0 {
		opts.WorkerLimit = defaultWorkerLimit
	}

	return &service{
		sources:     sources,
		normalizer:  normalizer,
		sink:        sink,
		tracker:     tracker,
		logger:      log,
		clock:       opts.Clock,
		windowDays:  opts.WindowDays,
		granularity: opts.Granularity,
		groupBy:     opts.GroupBy,
		workerLimit: opts.WorkerLimit,
	}
}

// Sync implements OrchestratorService. One pipeline runs per requested
// provider; each pipeline fetches, normalizes and stores independently,
// so a provider failure costs exactly that provider's records. The
// report is returned even when every pipeline fails or the context
// deadline cuts the cycle short.
func (s *service) Sync(ctx context.Context, window *model.TimeWindow, providers []string) *model.SyncReport {
	startedAt := s.clock.Now()
	syncID := uuid.NewString()
	log := s.logger.WithFields("sync_id", syncID)

	report := &model.SyncReport{
		SyncID:          syncID,
		Status:          model.SyncStatusCompleted,
		ProviderResults: map[model.ProviderTag]model.ProviderSyncResult{},
		StartedAt:       startedAt,
	}

	if window == nil {
		defaulted := model.DefaultWindow(startedAt, s.windowDays)
		window = &defaulted
	}
	report.Window = *window
	if err := window.Validate(); err != nil {
		log.Error("invalid sync window", "error", err)
		report.Duration = s.clock.Now().Sub(startedAt)
		return report
	}

	targets := s.resolveProviders(providers, log)
	if len(targets) == 0 {
		log.Warn("no providers to sync")
		report.Duration = s.clock.Now().Sub(startedAt)
		return report
	}

	query := model.CostQuery{
		Window:      *window,
		Granularity: s.granularity,
		GroupBy:     s.groupBy,
	}

	s.tracker.RecordSyncStart()
	log.Info("starting sync",
		"providers", len(targets),
		"window_start", window.Start.Format("2006-01-02"),
		"window_end", window.End.Format("2006-01-02"))

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[model.ProviderTag]model.ProviderSyncResult, len(targets))
		sem     = make(chan struct{}, s.workerLimit)
	)

	for _, provider := range targets {
		wg.Add(1)
		go func(provider model.ProviderTag) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				// The fan-in reports this pipeline as timed out.
				return
			}

			result := s.runPipeline(ctx, provider, query, log)

			mu.Lock()
			results[provider] = result
			mu.Unlock()
		}(provider)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Error("sync cut short", "error", ctx.Err())
	}

	// Pipelines still running when the context fires are reported as
	// errors; their goroutines unwind on their own once their SDK calls
	// observe the cancellation.
	mu.Lock()
	for _, provider := range targets {
		if _, ok := results[provider]; !ok {
			results[provider] = model.ProviderSyncResult{
				Provider:     provider,
				Status:       model.PipelineStatusError,
				ErrorMessage: "timeout: provider pipeline did not finish",
			}
		}
		report.ProviderResults[provider] = results[provider]
	}
	mu.Unlock()

	report.TotalRecordsProcessed = lo.SumBy(
		lo.Values(report.ProviderResults),
		func(r model.ProviderSyncResult) int { return r.RecordsProcessed },
	)
	report.Duration = s.clock.Now().Sub(startedAt)

	s.tracker.RecordSyncResult(report)
	log.Info("sync finished",
		"total_records", report.TotalRecordsProcessed,
		"duration", report.Duration.String())

	return report
}

// Status implements OrchestratorService
func (s *service) Status() model.SyncStatus {
	return s.tracker.Status()
}

// resolveProviders maps the requested names onto configured adapters.
// Unknown names and providers without a configured adapter are logged
// and skipped; they get no entry in the report.
func (s *service) resolveProviders(requested []string, log *logger.Logger) []model.ProviderTag {
	if len(requested) == 0 {
		targets := make([]model.ProviderTag, 0, len(s.sources))
		for _, provider := range model.AllProviders() {
			if _, ok := s.sources[provider]; ok {
				targets = append(targets, provider)
			}
		}
		return targets
	}

	seen := make(map[model.ProviderTag]bool, len(requested))
	targets := make([]model.ProviderTag, 0, len(requested))
	for _, name := range requested {
		provider, ok := model.ParseProviderTag(name)
		if !ok {
			log.Warn("skipping unknown provider", "provider", name)
			continue
		}
		if _, ok := s.sources[provider]; !ok {
			log.Warn("skipping provider without a configured adapter", "provider", provider)
			continue
		}
		if seen[provider] {
			continue
		}
		seen[provider] = true
		targets = append(targets, provider)
	}
	return targets
}

// runPipeline executes one provider's fetch-normalize-store sequence.
// Record-level failures are skipped and logged; only a fetch failure
// fails the pipeline.
func (s *service) runPipeline(
	ctx context.Context,
	provider model.ProviderTag,
	query model.CostQuery,
	log *logger.Logger,
) model.ProviderSyncResult {
	plog := log.WithFields("provider", provider)

	raws, err := s.sources[provider].FetchCostData(ctx, query)
	if err != nil {
		plog.Error("fetch failed", "error", err)
		return model.ProviderSyncResult{
			Provider:     provider,
			Status:       model.PipelineStatusError,
			ErrorMessage: err.Error(),
		}
	}

	processed := 0
	for _, raw := range raws {
		record, err := s.normalizer.Normalize(raw, provider)
		if err != nil {
			plog.Warn("skipping record", "error", err)
			continue
		}
		if err := s.sink.Store(ctx, *record); err != nil {
			plog.Warn("skipping record", "error", err)
			continue
		}
		processed++
	}

	plog.Info("pipeline finished", "records", processed, "fetched", len(raws))
	return model.ProviderSyncResult{
		Provider:         provider,
		Status:           model.PipelineStatusSuccess,
		RecordsProcessed: processed,
	}
}
