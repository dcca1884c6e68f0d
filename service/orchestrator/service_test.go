package orchestrator

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cloudledger/costsync/logger"
	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
)

type mockSource struct {
	provider model.ProviderTag
	records  []model.RawRecord
	err      error
	delay    time.Duration
}

func (m *mockSource) Provider() model.ProviderTag { return m.provider }

func (m *mockSource) FetchCostData(ctx context.Context, _ model.CostQuery) ([]model.RawRecord, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, &costsync.FetchError{Provider: m.provider, Err: ctx.Err()}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type mockNormalizer struct{}

func (mockNormalizer) Normalize(raw model.RawRecord, provider model.ProviderTag) (*model.CostRecord, error) {
	if bad, _ := raw["bad"].(bool); bad {
		return nil, &costsync.NormalizationError{
			Provider: provider,
			Field:    "cost_amount",
			Reason:   "missing",
		}
	}
	return &model.CostRecord{
		Provider:   provider,
		Service:    "Unknown",
		CostAmount: decimal.NewFromInt(1),
	}, nil
}

type mockSink struct {
	mu     sync.Mutex
	stored []model.CostRecord
	err    error
}

func (m *mockSink) Store(_ context.Context, record model.CostRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, record)
	return nil
}

type mockTracker struct {
	mu      sync.Mutex
	starts  int
	reports []*model.SyncReport
}

func (m *mockTracker) RecordSyncStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
}

func (m *mockTracker) RecordSyncResult(report *model.SyncReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
}

func (m *mockTracker) Status() model.SyncStatus { return model.SyncStatus{} }

func rawRecords(n int) []model.RawRecord {
	out := make([]model.RawRecord, n)
	for i := range out {
		out[i] = model.RawRecord{"cost": "1"}
	}
	return out
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func newOrchestrator(sources map[model.ProviderTag]costsync.CostSource, tracker costsync.SyncTracker) (*service, *mockSink) {
	sink := &mockSink{}
	return NewService(sources, mockNormalizer{}, sink, tracker, testLogger(), Options{}), sink
}

func TestSyncAllProviders(t *testing.T) {
	tracker := &mockTracker{}
	orch, sink := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS:   &mockSource{provider: model.ProviderAWS, records: rawRecords(2)},
		model.ProviderAzure: &mockSource{provider: model.ProviderAzure, records: rawRecords(3)},
		model.ProviderGCP:   &mockSource{provider: model.ProviderGCP, records: rawRecords(4)},
	}, tracker)

	report := orch.Sync(context.Background(), nil, nil)

	if report.Status != model.SyncStatusCompleted {
		t.Errorf("expected completed status, got %q", report.Status)
	}
	if len(report.ProviderResults) != 3 {
		t.Fatalf("expected 3 provider results, got %d", len(report.ProviderResults))
	}
	if report.TotalRecordsProcessed != 9 {
		t.Errorf("expected 9 total records, got %d", report.TotalRecordsProcessed)
	}

	sum := 0
	for _, result := range report.ProviderResults {
		if result.Status != model.PipelineStatusSuccess {
			t.Errorf("%s: expected success, got %q (%s)",
				result.Provider, result.Status, result.ErrorMessage)
		}
		sum += result.RecordsProcessed
	}
	if sum != report.TotalRecordsProcessed {
		t.Errorf("total %d does not match per-provider sum %d",
			report.TotalRecordsProcessed, sum)
	}
	if len(sink.stored) != 9 {
		t.Errorf("expected 9 stored records, got %d", len(sink.stored))
	}
	if tracker.starts != 1 || len(tracker.reports) != 1 {
		t.Errorf("expected one tracked cycle, got starts=%d reports=%d",
			tracker.starts, len(tracker.reports))
	}
}

func TestSyncProviderSubset(t *testing.T) {
	orch, _ := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS:   &mockSource{provider: model.ProviderAWS, records: rawRecords(1)},
		model.ProviderAzure: &mockSource{provider: model.ProviderAzure, records: rawRecords(1)},
		model.ProviderGCP:   &mockSource{provider: model.ProviderGCP, records: rawRecords(1)},
	}, &mockTracker{})

	report := orch.Sync(context.Background(), nil, []string{"aws", "gcp"})

	if len(report.ProviderResults) != 2 {
		t.Fatalf("expected exactly 2 provider results, got %d", len(report.ProviderResults))
	}
	if _, ok := report.ProviderResults[model.ProviderAWS]; !ok {
		t.Error("expected aws in results")
	}
	if _, ok := report.ProviderResults[model.ProviderGCP]; !ok {
		t.Error("expected gcp in results")
	}
	if _, ok := report.ProviderResults[model.ProviderAzure]; ok {
		t.Error("azure was not requested and must not appear in results")
	}
}

func TestSyncUnknownProviderSkipped(t *testing.T) {
	orch, _ := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS: &mockSource{provider: model.ProviderAWS, records: rawRecords(2)},
	}, &mockTracker{})

	report := orch.Sync(context.Background(), nil, []string{"aws", "oracle", "AWS"})

	if len(report.ProviderResults) != 1 {
		t.Fatalf("expected only aws in results, got %d entries", len(report.ProviderResults))
	}
	if report.ProviderResults[model.ProviderAWS].RecordsProcessed != 2 {
		t.Errorf("unexpected aws records: %+v", report.ProviderResults[model.ProviderAWS])
	}
}

func TestSyncFailureIsolation(t *testing.T) {
	orch, _ := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS: &mockSource{provider: model.ProviderAWS, records: rawRecords(3)},
		model.ProviderAzure: &mockSource{provider: model.ProviderAzure, err: &costsync.FetchError{
			Provider: model.ProviderAzure,
			Err:      errors.New("401 unauthorized"),
		}},
		model.ProviderGCP: &mockSource{provider: model.ProviderGCP, records: rawRecords(3)},
	}, &mockTracker{})

	report := orch.Sync(context.Background(), nil, nil)

	if report.Status != model.SyncStatusCompleted {
		t.Errorf("provider failure must not change the overall status, got %q", report.Status)
	}
	if report.TotalRecordsProcessed != 6 {
		t.Errorf("expected 6 total records, got %d", report.TotalRecordsProcessed)
	}

	azure := report.ProviderResults[model.ProviderAzure]
	if azure.Status != model.PipelineStatusError {
		t.Errorf("expected azure error, got %q", azure.Status)
	}
	if azure.ErrorMessage == "" {
		t.Error("expected azure error message")
	}
	if azure.RecordsProcessed != 0 {
		t.Errorf("failed pipeline must report 0 records, got %d", azure.RecordsProcessed)
	}
}

func TestSyncSkipsBadRecords(t *testing.T) {
	records := rawRecords(5)
	records[1]["bad"] = true
	records[3]["bad"] = true

	orch, sink := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS: &mockSource{provider: model.ProviderAWS, records: records},
	}, &mockTracker{})

	report := orch.Sync(context.Background(), nil, nil)

	aws := report.ProviderResults[model.ProviderAWS]
	if aws.Status != model.PipelineStatusSuccess {
		t.Errorf("record-level failures must not fail the pipeline, got %q", aws.Status)
	}
	if aws.RecordsProcessed != 3 {
		t.Errorf("expected 3 processed records, got %d", aws.RecordsProcessed)
	}
	if len(sink.stored) != 3 {
		t.Errorf("expected 3 stored records, got %d", len(sink.stored))
	}
}

func TestSyncEmptyProviderSet(t *testing.T) {
	orch, _ := newOrchestrator(map[model.ProviderTag]costsync.CostSource{}, &mockTracker{})

	report := orch.Sync(context.Background(), nil, nil)

	if report.Status != model.SyncStatusCompleted {
		t.Errorf("expected completed status, got %q", report.Status)
	}
	if len(report.ProviderResults) != 0 {
		t.Errorf("expected empty results, got %d entries", len(report.ProviderResults))
	}
	if report.TotalRecordsProcessed != 0 {
		t.Errorf("expected 0 total records, got %d", report.TotalRecordsProcessed)
	}
}

func TestSyncRunsPipelinesConcurrently(t *testing.T) {
	const delay = 50 * time.Millisecond

	orch, _ := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS:   &mockSource{provider: model.ProviderAWS, records: rawRecords(1), delay: delay},
		model.ProviderAzure: &mockSource{provider: model.ProviderAzure, records: rawRecords(1), delay: delay},
		model.ProviderGCP:   &mockSource{provider: model.ProviderGCP, records: rawRecords(1), delay: delay},
	}, &mockTracker{})

	start := time.Now()
	report := orch.Sync(context.Background(), nil, nil)
	elapsed := time.Since(start)

	if report.TotalRecordsProcessed != 3 {
		t.Errorf("expected 3 total records, got %d", report.TotalRecordsProcessed)
	}
	// Three 50ms fetches in sequence would take ~150ms.
	if elapsed > 2*delay {
		t.Errorf("pipelines appear sequential: took %s for three %s fetches", elapsed, delay)
	}
}

func TestSyncTimeout(t *testing.T) {
	orch, _ := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS: &mockSource{provider: model.ProviderAWS, records: rawRecords(2)},
		model.ProviderGCP: &mockSource{provider: model.ProviderGCP, records: rawRecords(1), delay: time.Second},
	}, &mockTracker{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report := orch.Sync(ctx, nil, nil)

	if report == nil {
		t.Fatal("a timed-out sync must still return a report")
	}
	if report.Status != model.SyncStatusCompleted {
		t.Errorf("expected completed status, got %q", report.Status)
	}

	aws := report.ProviderResults[model.ProviderAWS]
	if aws.Status != model.PipelineStatusSuccess || aws.RecordsProcessed != 2 {
		t.Errorf("expected aws to finish before the deadline, got %+v", aws)
	}

	gcp := report.ProviderResults[model.ProviderGCP]
	if gcp.Status != model.PipelineStatusError {
		t.Errorf("expected gcp timeout error, got %+v", gcp)
	}
	if gcp.ErrorMessage == "" {
		t.Error("expected a timeout error message for gcp")
	}
	if report.TotalRecordsProcessed != 2 {
		t.Errorf("expected 2 total records, got %d", report.TotalRecordsProcessed)
	}
}

func TestSyncDefaultWindow(t *testing.T) {
	orch, _ := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS: &mockSource{provider: model.ProviderAWS, records: rawRecords(1)},
	}, &mockTracker{})

	report := orch.Sync(context.Background(), nil, nil)

	days := report.Window.End.Sub(report.Window.Start).Hours() / 24
	if days < 29.9 || days > 30.1 {
		t.Errorf("expected a 30-day default window, got %.1f days", days)
	}
	if report.SyncID == "" {
		t.Error("expected a generated sync id")
	}
}

func TestSyncExplicitWindow(t *testing.T) {
	orch, _ := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS: &mockSource{provider: model.ProviderAWS, records: rawRecords(1)},
	}, &mockTracker{})

	window := model.TimeWindow{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	report := orch.Sync(context.Background(), &window, nil)

	if !report.Window.Start.Equal(window.Start) || !report.Window.End.Equal(window.End) {
		t.Errorf("expected window %+v, got %+v", window, report.Window)
	}
}

func TestSyncInvalidWindow(t *testing.T) {
	tracker := &mockTracker{}
	orch, sink := newOrchestrator(map[model.ProviderTag]costsync.CostSource{
		model.ProviderAWS: &mockSource{provider: model.ProviderAWS, records: rawRecords(1)},
	}, tracker)

	window := model.TimeWindow{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	report := orch.Sync(context.Background(), &window, nil)

	if len(report.ProviderResults) != 0 {
		t.Errorf("expected no pipelines for an invalid window, got %d", len(report.ProviderResults))
	}
	if len(sink.stored) != 0 {
		t.Errorf("expected no stored records, got %d", len(sink.stored))
	}
}
