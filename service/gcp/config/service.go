package gcpconfig

import (
	"context"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/bigquery/v2"
	"google.golang.org/api/cloudresourcemanager/v1"
)

func NewService(projectID string) *service {
	return &service{
		projectID: projectID,
	}
}

func (s *service) GetCredentials(ctx context.Context) (*google.Credentials, error) {
	// Use Application Default Credentials
	// This supports:
	// - GOOGLE_APPLICATION_CREDENTIALS environment variable
	// - gcloud auth application-default login
	// - Service account on GCE/Cloud Run/Cloud Functions
	return google.FindDefaultCredentials(ctx,
		bigquery.BigqueryScope,
		cloudresourcemanager.CloudPlatformReadOnlyScope,
	)
}

func (s *service) GetProjectID() string {
	return s.projectID
}
