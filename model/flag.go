package model

type Flags struct {
	// Common flags
	ConfigPath string
	Providers  string
	Validate   bool
	Chart      bool

	// Sync window overrides (YYYY-MM-DD); empty means config default
	Start string
	End   string

	Granularity string
}
