package flag

import (
	"flag"

	"github.com/cloudledger/costsync/model"
)

func NewService() *service {
	return &service{}
}

func (s *service) GetParsedFlags() (model.Flags, error) {
	configPath := flag.String("config", "costsync.yaml", "Path to the YAML configuration file")
	providers := flag.String("providers", "", "Comma-separated providers to sync (aws,azure,gcp); empty means all enabled")
	start := flag.String("start", "", "Sync window start date (YYYY-MM-DD)")
	end := flag.String("end", "", "Sync window end date (YYYY-MM-DD)")
	granularity := flag.String("granularity", "", "Time bucketing: daily, monthly or hourly")
	validate := flag.Bool("validate", false, "Validate provider credentials instead of syncing")
	chart := flag.Bool("chart", false, "Render a cost-per-provider chart after the sync")

	flag.Parse()

	return model.Flags{
		ConfigPath:  *configPath,
		Providers:   *providers,
		Start:       *start,
		End:         *end,
		Granularity: *granularity,
		Validate:    *validate,
		Chart:       *chart,
	}, nil
}
