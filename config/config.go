package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cloudledger/costsync/model"
)

// Configuration validation constants
const (
	MinPort       = 1
	MaxPort       = 65535
	MinWindowDays = 1
	MaxWindowDays = 365 // Cost Explorer and billing exports keep ~13 months; cap defensively

	// Default values
	DefaultWindowDays  = 30
	DefaultGranularity = "daily"
	DefaultWorkerLimit = 4
	DefaultSyncTimeout = 120 // seconds, whole-cycle deadline
	DefaultMetricsPort = 9090
	DefaultLogLevel    = "info"
	DefaultCurrency    = "USD"
)

// AWSConfig holds AWS credential/query settings.
type AWSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

// AzureConfig holds Azure credential/query settings. Service-principal
// secrets are picked up by azidentity from the environment
// (AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET).
type AzureConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SubscriptionID string `yaml:"subscription_id"`
}

// GCPConfig holds GCP settings. Credentials resolve through Application
// Default Credentials (GOOGLE_APPLICATION_CREDENTIALS or gcloud auth).
type GCPConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ProjectID      string `yaml:"project_id"`
	BillingAccount string `yaml:"billing_account"`
	BillingDataset string `yaml:"billing_dataset"`
}

// SyncConfig holds the defaults applied to a sync cycle when the caller
// does not override them.
type SyncConfig struct {
	WindowDays     int      `yaml:"window_days"`
	Granularity    string   `yaml:"granularity"`
	GroupBy        []string `yaml:"group_by"`
	WorkerLimit    int      `yaml:"worker_limit"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Config represents the application configuration
type Config struct {
	AWS   AWSConfig   `yaml:"aws"`
	Azure AzureConfig `yaml:"azure"`
	GCP   GCPConfig   `yaml:"gcp"`
	Sync  SyncConfig  `yaml:"sync"`

	Currency    string `yaml:"currency"`
	MetricsPort int    `yaml:"metrics_port"`
	LogLevel    string `yaml:"log_level"`
}

// Load loads configuration from a YAML file and applies environment
// variable overrides.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config path comes from an operator-supplied CLI flag
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment variable error: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a configuration purely from environment variables,
// for entrypoints that run without a config file. AWS is enabled by
// default since its SDK resolves credentials from the default chain;
// Azure and GCP are enabled when their identifiers are present.
func FromEnv() (*Config, error) {
	var cfg Config
	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment variable error: %w", err)
	}

	cfg.AWS.Enabled = true
	if cfg.GCP.ProjectID != "" && cfg.GCP.BillingAccount != "" {
		cfg.GCP.Enabled = true
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// EnabledProviders returns the provider tags with configured credentials.
func (c *Config) EnabledProviders() []model.ProviderTag {
	var tags []model.ProviderTag
	if c.AWS.Enabled {
		tags = append(tags, model.ProviderAWS)
	}
	if c.Azure.Enabled {
		tags = append(tags, model.ProviderAzure)
	}
	if c.GCP.Enabled {
		tags = append(tags, model.ProviderGCP)
	}
	return tags
}

func applyDefaults(cfg *Config) {
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.Sync.WindowDays == 0 {
		cfg.Sync.WindowDays = DefaultWindowDays
	}
	if cfg.Sync.Granularity == "" {
		cfg.Sync.Granularity = DefaultGranularity
	}
	if len(cfg.Sync.GroupBy) == 0 {
		cfg.Sync.GroupBy = []string{"service", "region"}
	}
	if cfg.Sync.WorkerLimit == 0 {
		cfg.Sync.WorkerLimit = DefaultWorkerLimit
	}
	if cfg.Sync.TimeoutSeconds == 0 {
		cfg.Sync.TimeoutSeconds = DefaultSyncTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = DefaultMetricsPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("COSTSYNC_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	if val := os.Getenv("COSTSYNC_WINDOW_DAYS"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid COSTSYNC_WINDOW_DAYS: must be an integer, got %q", val)
		}
		cfg.Sync.WindowDays = i
	}

	if val := os.Getenv("COSTSYNC_SYNC_TIMEOUT"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid COSTSYNC_SYNC_TIMEOUT: must be an integer, got %q", val)
		}
		cfg.Sync.TimeoutSeconds = i
	}

	if val := os.Getenv("COSTSYNC_METRICS_PORT"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid COSTSYNC_METRICS_PORT: must be an integer, got %q", val)
		}
		cfg.MetricsPort = i
	}

	if val := os.Getenv("AWS_REGION"); val != "" {
		cfg.AWS.Region = val
	}
	if val := os.Getenv("AWS_PROFILE"); val != "" {
		cfg.AWS.Profile = val
	}
	if val := os.Getenv("AZURE_SUBSCRIPTION_ID"); val != "" {
		cfg.Azure.SubscriptionID = val
		cfg.Azure.Enabled = true
	}
	if val := os.Getenv("GCP_PROJECT_ID"); val != "" {
		cfg.GCP.ProjectID = val
	}
	if val := os.Getenv("GCP_BILLING_ACCOUNT"); val != "" {
		cfg.GCP.BillingAccount = val
	}

	return nil
}

func validate(cfg *Config) error {
	if !cfg.AWS.Enabled && !cfg.Azure.Enabled && !cfg.GCP.Enabled {
		return fmt.Errorf("no providers enabled")
	}

	if cfg.Azure.Enabled && cfg.Azure.SubscriptionID == "" {
		return fmt.Errorf("azure enabled but subscription_id is empty")
	}

	if cfg.GCP.Enabled {
		if cfg.GCP.ProjectID == "" {
			return fmt.Errorf("gcp enabled but project_id is empty")
		}
		if cfg.GCP.BillingAccount == "" {
			return fmt.Errorf("gcp enabled but billing_account is empty")
		}
	}

	if cfg.Sync.WindowDays < MinWindowDays || cfg.Sync.WindowDays > MaxWindowDays {
		return fmt.Errorf("window_days must be between %d and %d, got %d",
			MinWindowDays, MaxWindowDays, cfg.Sync.WindowDays)
	}

	if _, err := model.ParseGranularity(cfg.Sync.Granularity); err != nil {
		return err
	}

	if cfg.Sync.WorkerLimit < 1 {
		return fmt.Errorf("worker_limit must be positive, got %d", cfg.Sync.WorkerLimit)
	}

	if cfg.Sync.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", cfg.Sync.TimeoutSeconds)
	}

	if cfg.MetricsPort < MinPort || cfg.MetricsPort > MaxPort {
		return fmt.Errorf("metrics_port must be between %d and %d", MinPort, MaxPort)
	}

	return nil
}
