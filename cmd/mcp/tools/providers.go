package tools

import (
	"context"
	"fmt"

	"github.com/cloudledger/costsync/config"
	"github.com/cloudledger/costsync/model"
	costsync "github.com/cloudledger/costsync/service"
	awsconfig "github.com/cloudledger/costsync/service/aws/config"
	awscostexplorer "github.com/cloudledger/costsync/service/aws/costexplorer"
	awssts "github.com/cloudledger/costsync/service/aws/sts"
	azureconfig "github.com/cloudledger/costsync/service/azure/config"
	azurecostmanagement "github.com/cloudledger/costsync/service/azure/costmanagement"
	azureidentity "github.com/cloudledger/costsync/service/azure/identity"
	gcpbilling "github.com/cloudledger/costsync/service/gcp/billing"
	gcpconfig "github.com/cloudledger/costsync/service/gcp/config"
	gcpidentity "github.com/cloudledger/costsync/service/gcp/identity"
)

// Services bundles the per-provider adapters the tools operate on.
type Services struct {
	Sources    map[model.ProviderTag]costsync.CostSource
	Identities map[model.ProviderTag]costsync.IdentityService

	closeFns []func() error
}

// Close releases provider clients that hold connections.
func (s *Services) Close() error {
	var firstErr error
	for _, closeFn := range s.closeFns {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildServices constructs one cost source and one identity service per
// enabled provider.
func BuildServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{
		Sources:    map[model.ProviderTag]costsync.CostSource{},
		Identities: map[model.ProviderTag]costsync.IdentityService{},
	}

	if cfg.AWS.Enabled {
		awsCfg, err := awsconfig.NewService().GetAWSCfg(ctx, cfg.AWS.Region, cfg.AWS.Profile)
		if err != nil {
			return nil, fmt.Errorf("aws: %w", err)
		}
		services.Sources[model.ProviderAWS] = awscostexplorer.NewService(awsCfg)
		services.Identities[model.ProviderAWS] = awssts.NewService(awsCfg)
	}

	if cfg.Azure.Enabled {
		azCfg, err := azureconfig.NewService(cfg.Azure.SubscriptionID)
		if err != nil {
			return nil, fmt.Errorf("azure: %w", err)
		}

		costService, err := azurecostmanagement.NewService(azCfg.GetSubscriptionID(), azCfg.GetCredential())
		if err != nil {
			return nil, fmt.Errorf("azure: %w", err)
		}
		identityService, err := azureidentity.NewService(azCfg.GetSubscriptionID(), azCfg.GetCredential())
		if err != nil {
			return nil, fmt.Errorf("azure: %w", err)
		}

		services.Sources[model.ProviderAzure] = costService
		services.Identities[model.ProviderAzure] = identityService
	}

	if cfg.GCP.Enabled {
		creds, err := gcpconfig.NewService(cfg.GCP.ProjectID).GetCredentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcp: %w", err)
		}

		billingService, err := gcpbilling.NewService(ctx, cfg.GCP.ProjectID, cfg.GCP.BillingAccount, cfg.GCP.BillingDataset, creds)
		if err != nil {
			return nil, fmt.Errorf("gcp: %w", err)
		}
		identityService, err := gcpidentity.NewService(ctx, cfg.GCP.ProjectID, creds)
		if err != nil {
			return nil, fmt.Errorf("gcp: %w", err)
		}

		services.Sources[model.ProviderGCP] = billingService
		services.Identities[model.ProviderGCP] = identityService
		services.closeFns = append(services.closeFns, billingService.Close)
	}

	return services, nil
}
