package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Commerce backend GraphQL API.
	CommerceEndpoint string        `envconfig:"COMMERCE_API_ENDPOINT"`
	CommerceToken    string        `envconfig:"COMMERCE_API_TOKEN"`
	CommerceTimeout  time.Duration `envconfig:"COMMERCE_API_TIMEOUT" default:"30s"`
	CommercePageSize int           `envconfig:"COMMERCE_PAGE_SIZE" default:"100"`

	// Reorder defaults used when the caller does not override them.
	LeadTimeDays int `envconfig:"LEAD_TIME_DAYS" default:"7"`
	SafetyStock  int `envconfig:"SAFETY_STOCK" default:"10"`

	// Table persistence: local directory by default, Cloud Storage bucket
	// when GCS_BUCKET is set.
	DataDir            string `envconfig:"DATA_DIR" default:"./data"`
	GCSBucket          string `envconfig:"GCS_BUCKET"`
	GCSPrefix          string `envconfig:"GCS_PREFIX" default:"tables"`
	GCSCredentialsJSON string `envconfig:"GCS_CREDENTIALS_JSON"`

	// Snapshot cache. Empty address disables caching.
	RedisAddr   string        `envconfig:"REDIS_ADDR"`
	SnapshotTTL time.Duration `envconfig:"SNAPSHOT_TTL" default:"1h"`

	// Google Sheets export.
	SheetsCredentialsFile string `envconfig:"SHEETS_CREDENTIALS_FILE" default:"key.json"`
	SheetsShareWith       string `envconfig:"SHEETS_SHARE_WITH"`
}

// ErrCommerceNotConfigured is returned when the commerce endpoint or token
// is missing. Gateway construction checks this before any call is attempted.
var ErrCommerceNotConfigured = errors.New("app: commerce endpoint and token must be configured")

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateCommerce reports whether the commerce backend may be called.
func (c *Config) ValidateCommerce() error {
	if c == nil || c.CommerceEndpoint == "" || c.CommerceToken == "" {
		return ErrCommerceNotConfigured
	}
	return nil
}

// UseGCS reports whether tables persist to Cloud Storage instead of disk.
func (c *Config) UseGCS() bool {
	return c != nil && c.GCSBucket != ""
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
