package flag

import "github.com/cloudledger/costsync/model"

type service struct{}

type FlagService interface {
	GetParsedFlags() (model.Flags, error)
}
