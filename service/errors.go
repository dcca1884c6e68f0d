package service

import (
	"fmt"

	"github.com/cloudledger/costsync/model"
)

// FetchError wraps any transport, authentication or malformed-response
// failure from one provider's billing API. It is scoped to that
// provider's pipeline and never propagates past the orchestrator.
type FetchError struct {
	Provider model.ProviderTag
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch failed: %v", e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NormalizationError reports a single RawRecord that could not be
// converted because a required field was missing or invalid. The record
// is skipped; the pipeline continues.
type NormalizationError struct {
	Provider model.ProviderTag
	Field    string
	Reason   string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s: cannot normalize record: field %q %s", e.Provider, e.Field, e.Reason)
}

// UnsupportedGranularityError is returned by an adapter whose vendor
// cannot serve the requested time bucketing.
type UnsupportedGranularityError struct {
	Provider    model.ProviderTag
	Granularity model.Granularity
}

func (e *UnsupportedGranularityError) Error() string {
	return fmt.Sprintf("%s: granularity %q not supported", e.Provider, e.Granularity)
}
