package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cloudledger/costsync/clock"
	"github.com/cloudledger/costsync/config"
	"github.com/cloudledger/costsync/logger"
	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
	awsconfig "github.com/cloudledger/costsync/service/aws/config"
	awscostexplorer "github.com/cloudledger/costsync/service/aws/costexplorer"
	awssts "github.com/cloudledger/costsync/service/aws/sts"
	azureconfig "github.com/cloudledger/costsync/service/azure/config"
	azurecostmanagement "github.com/cloudledger/costsync/service/azure/costmanagement"
	azureidentity "github.com/cloudledger/costsync/service/azure/identity"
	"github.com/cloudledger/costsync/service/flag"
	gcpbilling "github.com/cloudledger/costsync/service/gcp/billing"
	gcpconfig "github.com/cloudledger/costsync/service/gcp/config"
	gcpidentity "github.com/cloudledger/costsync/service/gcp/identity"
	"github.com/cloudledger/costsync/service/normalizer"
	"github.com/cloudledger/costsync/service/orchestrator"
	"github.com/cloudledger/costsync/service/recordstore"
	"github.com/cloudledger/costsync/service/status"
	"github.com/cloudledger/costsync/utils"
)

func main() {
	utils.DrawBanner()

	flagService := flag.NewService()
	flags, err := flagService.GetParsedFlags()
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	sources, identities, closeFns, err := buildProviders(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer func() {
		for _, closeFn := range closeFns {
			if err := closeFn(); err != nil {
				log.Warn("close failed", "error", err)
			}
		}
	}()

	if flags.Validate {
		utils.StartSpinner("Validating provider credentials...")
		results := validateProviders(ctx, identities)
		utils.StopSpinner()
		utils.DrawValidationTable(results)
		return
	}

	granularity := model.Granularity(cfg.Sync.Granularity)
	if flags.Granularity != "" {
		granularity, err = model.ParseGranularity(flags.Granularity)
		if err != nil {
			panic(err)
		}
	}

	window, err := windowFromFlags(flags)
	if err != nil {
		panic(err)
	}

	clk := clock.RealClock{}
	store := recordstore.NewService()
	tracker := status.NewService(clk, prometheus.NewRegistry())
	norm := normalizer.NewService(clk, cfg.Currency)

	orch := orchestrator.NewService(sources, norm, store, tracker, log, orchestrator.Options{
		Clock:       clk,
		WindowDays:  cfg.Sync.WindowDays,
		Granularity: granularity,
		GroupBy:     cfg.Sync.GroupBy,
		WorkerLimit: cfg.Sync.WorkerLimit,
	})

	syncCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Sync.TimeoutSeconds)*time.Second)
	defer cancel()

	utils.StartSpinner("Syncing cost data...")
	report := orch.Sync(syncCtx, window, providerList(flags.Providers))
	utils.StopSpinner()

	utils.DrawSyncReportTable(report)

	if flags.Chart {
		utils.DrawProviderCostChart(store.CostByProvider(), cfg.Currency)
	}
}

// buildProviders constructs one cost source and one identity service
// per enabled provider. GCP's BigQuery client needs closing; the caller
// gets the close funcs.
func buildProviders(ctx context.Context, cfg *config.Config) (
	map[model.ProviderTag]costsync.CostSource,
	map[model.ProviderTag]costsync.IdentityService,
	[]func() error,
	error,
) {
	sources := map[model.ProviderTag]costsync.CostSource{}
	identities := map[model.ProviderTag]costsync.IdentityService{}
	var closeFns []func() error

	if cfg.AWS.Enabled {
		awsCfg, err := awsconfig.NewService().GetAWSCfg(ctx, cfg.AWS.Region, cfg.AWS.Profile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("aws: %w", err)
		}
		sources[model.ProviderAWS] = awscostexplorer.NewService(awsCfg)
		identities[model.ProviderAWS] = awssts.NewService(awsCfg)
	}

	if cfg.Azure.Enabled {
		azCfg, err := azureconfig.NewService(cfg.Azure.SubscriptionID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("azure: %w", err)
		}

		costService, err := azurecostmanagement.NewService(azCfg.GetSubscriptionID(), azCfg.GetCredential())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("azure: %w", err)
		}
		identityService, err := azureidentity.NewService(azCfg.GetSubscriptionID(), azCfg.GetCredential())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("azure: %w", err)
		}

		sources[model.ProviderAzure] = costService
		identities[model.ProviderAzure] = identityService
	}

	if cfg.GCP.Enabled {
		creds, err := gcpconfig.NewService(cfg.GCP.ProjectID).GetCredentials(ctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("gcp: %w", err)
		}

		billingService, err := gcpbilling.NewService(ctx, cfg.GCP.ProjectID, cfg.GCP.BillingAccount, cfg.GCP.BillingDataset, creds)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("gcp: %w", err)
		}
		identityService, err := gcpidentity.NewService(ctx, cfg.GCP.ProjectID, creds)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("gcp: %w", err)
		}

		sources[model.ProviderGCP] = billingService
		identities[model.ProviderGCP] = identityService
		closeFns = append(closeFns, billingService.Close)
	}

	return sources, identities, closeFns, nil
}

// validateProviders checks every configured provider's credentials
// concurrently.
func validateProviders(ctx context.Context, identities map[model.ProviderTag]costsync.IdentityService) []model.ProviderValidation {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []model.ProviderValidation
	)

	for provider, identity := range identities {
		wg.Add(1)
		go func(provider model.ProviderTag, identity costsync.IdentityService) {
			defer wg.Done()

			account, err := identity.GetAccountInfo(ctx)

			mu.Lock()
			results = append(results, model.ProviderValidation{
				Provider: provider,
				Account:  account,
				Error:    err,
			})
			mu.Unlock()
		}(provider, identity)
	}

	wg.Wait()
	return results
}

func windowFromFlags(flags model.Flags) (*model.TimeWindow, error) {
	if flags.Start == "" && flags.End == "" {
		return nil, nil
	}
	if flags.Start == "" || flags.End == "" {
		return nil, fmt.Errorf("both -start and -end must be given")
	}

	start, err := time.Parse("2006-01-02", flags.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid -start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", flags.End)
	if err != nil {
		return nil, fmt.Errorf("invalid -end date: %w", err)
	}

	window := model.TimeWindow{Start: start, End: end}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	return &window, nil
}

func providerList(value string) []string {
	if value == "" {
		return nil
	}

	var providers []string
	for _, name := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			providers = append(providers, trimmed)
		}
	}
	return providers
}
