package gcpidentity

import (
	"context"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/option"

	"github.com/cloudledger/costsync/model"
)

func NewService(ctx context.Context, projectID string, creds *google.Credentials) (*service, error) {
	opts := []option.ClientOption{
		option.WithScopes(cloudresourcemanager.CloudPlatformReadOnlyScope),
	}
	if creds != nil {
		opts = []option.ClientOption{option.WithCredentials(creds)}
	}

	client, err := cloudresourcemanager.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &service{
		projectID: projectID,
		client:    client,
	}, nil
}

// GetAccountInfo implements service.IdentityService
func (s *service) GetAccountInfo(ctx context.Context) (*model.AccountInfo, error) {
	project, err := s.GetProjectInfo(ctx)
	if err != nil {
		return nil, err
	}

	return &model.AccountInfo{
		Provider:    model.ProviderGCP,
		AccountID:   s.projectID,
		AccountName: project.Name,
	}, nil
}

// GetProjectInfo returns detailed GCP project information
func (s *service) GetProjectInfo(ctx context.Context) (*cloudresourcemanager.Project, error) {
	return s.client.Projects.Get(s.projectID).Context(ctx).Do()
}
