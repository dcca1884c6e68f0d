package recordstore

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cloudledger/costsync/model"
)

func record(provider model.ProviderTag, service, amount string) model.CostRecord {
	return model.CostRecord{
		Provider:     provider,
		Service:      service,
		CostAmount:   decimal.RequireFromString(amount),
		CostCurrency: "USD",
	}
}

func TestStoreAndList(t *testing.T) {
	store := NewService()
	ctx := context.Background()

	if err := store.Store(ctx, record(model.ProviderAWS, "EC2", "10.50")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Store(ctx, record(model.ProviderGCP, "BigQuery", "2.25")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Count() != 2 {
		t.Errorf("expected 2 records, got %d", store.Count())
	}

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 listed records, got %d", len(list))
	}

	// The returned slice is a copy; mutating it must not affect the store.
	list[0].Service = "mutated"
	if store.List()[0].Service == "mutated" {
		t.Error("List must return a copy of the stored records")
	}
}

func TestCostByProvider(t *testing.T) {
	store := NewService()
	ctx := context.Background()

	_ = store.Store(ctx, record(model.ProviderAWS, "EC2", "10.50"))
	_ = store.Store(ctx, record(model.ProviderAWS, "S3", "0.50"))
	_ = store.Store(ctx, record(model.ProviderAzure, "Virtual Machines", "7"))

	totals := store.CostByProvider()
	if want := decimal.RequireFromString("11"); !totals[model.ProviderAWS].Equal(want) {
		t.Errorf("expected aws total %s, got %s", want, totals[model.ProviderAWS])
	}
	if want := decimal.RequireFromString("7"); !totals[model.ProviderAzure].Equal(want) {
		t.Errorf("expected azure total %s, got %s", want, totals[model.ProviderAzure])
	}
	if _, ok := totals[model.ProviderGCP]; ok {
		t.Error("expected no gcp entry without gcp records")
	}
}

func TestCostByService(t *testing.T) {
	store := NewService()
	ctx := context.Background()

	_ = store.Store(ctx, record(model.ProviderAWS, "EC2", "3"))
	_ = store.Store(ctx, record(model.ProviderAWS, "EC2", "4"))
	_ = store.Store(ctx, record(model.ProviderGCP, "BigQuery", "5"))

	totals := store.CostByService(model.ProviderAWS)
	if len(totals) != 1 {
		t.Fatalf("expected 1 service, got %d", len(totals))
	}
	if want := decimal.RequireFromString("7"); !totals["EC2"].Equal(want) {
		t.Errorf("expected EC2 total %s, got %s", want, totals["EC2"])
	}
}

func TestConcurrentStore(t *testing.T) {
	store := NewService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Store(ctx, record(model.ProviderAWS, "EC2", "1"))
		}()
	}
	wg.Wait()

	if store.Count() != 50 {
		t.Errorf("expected 50 records, got %d", store.Count())
	}
}

func TestReset(t *testing.T) {
	store := NewService()
	_ = store.Store(context.Background(), record(model.ProviderAWS, "EC2", "1"))

	store.Reset()

	if store.Count() != 0 {
		t.Errorf("expected empty store after reset, got %d records", store.Count())
	}
}
