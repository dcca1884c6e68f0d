package model

// AccountInfo represents cloud account/project identity, used when
// validating provider credentials before a sync is scheduled.
type AccountInfo struct {
	Provider    ProviderTag
	AccountID   string
	AccountName string
}

// ProviderValidation is the outcome of one provider credential check.
type ProviderValidation struct {
	Provider ProviderTag
	Account  *AccountInfo
	Error    error
}
