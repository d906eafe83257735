// Package config holds the static topology configuration: the default
// deployment target plus optional multi-account directory settings. It is
// loaded once at startup and passed explicitly to components so that
// target resolution stays a pure function of (entity, config).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

// Target describes an account/region/build-project triple
type Target struct {
	Name            string `yaml:"name" json:"name"`
	AccountID       string `yaml:"accountId" json:"accountId"`
	Region          string `yaml:"region" json:"region"`
	BuildProjectArn string `yaml:"buildProjectArn" json:"buildProjectArn"`
}

// MultiAccount enables the multi-account directory lookup path. All
// directory and parameter reads use credentials assumed via RoleArn and
// are scoped to DirectoryRegion regardless of the region being queried.
type MultiAccount struct {
	Enabled              bool   `yaml:"enabled"`
	DirectoryRegion      string `yaml:"directoryRegion"`
	RoleArn              string `yaml:"roleArn"`
	EnrolledOUsParameter string `yaml:"enrolledOUsParameter"`
	RegionsParameter     string `yaml:"regionsParameter"`
}

// Config is the application topology configuration
type Config struct {
	DefaultTarget   Target        `yaml:"defaultTarget"`
	MultiAccount    *MultiAccount `yaml:"multiAccount,omitempty"`
	AssetBucket     string        `yaml:"assetBucket"`
	AssetPrefix     string        `yaml:"assetPrefix,omitempty"`
	ParameterPrefix string        `yaml:"parameterPrefix"`
	MetricsEndpoint string        `yaml:"metricsEndpoint,omitempty"`
}

// Load reads configuration from a YAML file, then applies environment
// variable overrides on top
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds configuration from environment variables only, for
// running without a config file
func FromEnv() (*Config, error) {
	var cfg Config
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setIfPresent(&c.DefaultTarget.Name, "DEFAULT_TARGET_NAME")
	setIfPresent(&c.DefaultTarget.AccountID, "DEFAULT_ACCOUNT_ID")
	setIfPresent(&c.DefaultTarget.Region, "DEFAULT_REGION")
	setIfPresent(&c.DefaultTarget.BuildProjectArn, "BUILD_PROJECT_ARN")
	setIfPresent(&c.AssetBucket, "ASSET_BUCKET")
	setIfPresent(&c.AssetPrefix, "ASSET_PREFIX")
	setIfPresent(&c.ParameterPrefix, "PARAMETER_PREFIX")
	setIfPresent(&c.MetricsEndpoint, "METRICS_ENDPOINT")

	if os.Getenv("MULTI_ACCOUNT") == "true" {
		if c.MultiAccount == nil {
			c.MultiAccount = &MultiAccount{}
		}
		c.MultiAccount.Enabled = true
	}
	if c.MultiAccount != nil {
		setIfPresent(&c.MultiAccount.DirectoryRegion, "DIRECTORY_REGION")
		setIfPresent(&c.MultiAccount.RoleArn, "CROSS_ACCOUNT_ROLE_ARN")
		setIfPresent(&c.MultiAccount.EnrolledOUsParameter, "ENROLLED_OUS_PARAMETER")
		setIfPresent(&c.MultiAccount.RegionsParameter, "REGIONS_PARAMETER")
	}

	if c.DefaultTarget.Name == "" {
		c.DefaultTarget.Name = "default"
	}
	if c.ParameterPrefix == "" {
		c.ParameterPrefix = "/portal/entities"
	}
}

// Validate ensures the default target is fully specified. Exactly one
// default target must always exist.
func (c *Config) Validate() error {
	if c.DefaultTarget.AccountID == "" || c.DefaultTarget.Region == "" || c.DefaultTarget.BuildProjectArn == "" {
		return fmt.Errorf("%w: accountId, region and buildProjectArn must all be set", apperrors.ErrDefaultTargetRequired)
	}
	if c.MultiAccountEnabled() {
		ma := c.MultiAccount
		if ma.DirectoryRegion == "" || ma.RoleArn == "" || ma.EnrolledOUsParameter == "" {
			return fmt.Errorf("multi-account mode requires directoryRegion, roleArn and enrolledOUsParameter")
		}
	}
	return nil
}

// MultiAccountEnabled reports whether the multi-account directory lookup
// path is configured
func (c *Config) MultiAccountEnabled() bool {
	return c.MultiAccount != nil && c.MultiAccount.Enabled
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
