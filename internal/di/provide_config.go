package di

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/catalogops/aws-orchestrator/internal/config"
)

// ProvideAppConfig loads the topology configuration from a YAML file when
// a path was supplied, falling back to environment variables only
func ProvideAppConfig(ctx context.Context, path ConfigPath) (*config.Config, error) {
	logger := zerolog.Ctx(ctx)

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(string(path))
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("default_account", cfg.DefaultTarget.AccountID).
		Str("default_region", cfg.DefaultTarget.Region).
		Bool("multi_account", cfg.MultiAccountEnabled()).
		Msg("Configuration loaded")

	return cfg, nil
}
