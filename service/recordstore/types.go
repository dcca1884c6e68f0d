package recordstore

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cloudledger/costsync/model"
)

type service struct {
	mu      sync.RWMutex
	records []model.CostRecord
}

// RecordStoreService accumulates normalized cost records for the
// lifetime of the process and answers aggregate queries over them.
type RecordStoreService interface {
	Store(ctx context.Context, record model.CostRecord) error
	List() []model.CostRecord
	Count() int
	CostByProvider() map[model.ProviderTag]decimal.Decimal
	CostByService(provider model.ProviderTag) map[string]decimal.Decimal
	Reset()
}
