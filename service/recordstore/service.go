package recordstore

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cloudledger/costsync/model"
)

func NewService() *service {
	return &service{}
}

// Store implements service.RecordSink
func (s *service) Store(_ context.Context, record model.CostRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	return nil
}

// List returns a copy of all stored records.
func (s *service) List() []model.CostRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CostRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// CostByProvider sums cost amounts per provider. Mixed currencies are
// summed as-is; rendering decides how to label them.
func (s *service) CostByProvider() map[model.ProviderTag]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[model.ProviderTag]decimal.Decimal)
	for _, record := range s.records {
		totals[record.Provider] = totals[record.Provider].Add(record.CostAmount)
	}
	return totals
}

// CostByService sums cost amounts per service name for one provider.
func (s *service) CostByService(provider model.ProviderTag) map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]decimal.Decimal)
	for _, record := range s.records {
		if record.Provider != provider {
			continue
		}
		totals[record.Service] = totals[record.Service].Add(record.CostAmount)
	}
	return totals
}

// Reset drops all stored records.
func (s *service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}
