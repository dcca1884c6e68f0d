package normalizer

import (
	"github.com/cloudledger/costsync/clock"
	"github.com/cloudledger/costsync/model"
)

type service struct {
	clock           clock.Clock
	defaultCurrency string
}

// NormalizerService converts provider-shaped raw records into canonical
// cost records.
type NormalizerService interface {
	Normalize(raw model.RawRecord, provider model.ProviderTag) (*model.CostRecord, error)
}
