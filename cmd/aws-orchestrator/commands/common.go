// Package commands implements the aws-orchestrator CLI surface. Each
// command builds the di container from its flags and invokes against the
// shared orchestration packages.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/catalogops/aws-orchestrator/internal/di"
	"github.com/catalogops/aws-orchestrator/internal/entity"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the topology config file (falls back to environment variables)",
		EnvVars: []string{"ORCHESTRATOR_CONFIG"},
	}
}

func refFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "ref",
		Aliases:  []string{"r"},
		Usage:    "Entity reference in {kind}:{namespace}/{name} form",
		Required: true,
		EnvVars:  []string{"ENTITY_REF"},
	}
}

func catalogURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "catalog-url",
		Usage:   "Portal catalog API base URL",
		EnvVars: []string{"CATALOG_URL"},
	}
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "token",
		Aliases: []string{"t"},
		Usage:   "Catalog API bearer token",
		EnvVars: []string{"CATALOG_TOKEN"},
	}
}

// newContainer builds the di container from the command's flags
func newContainer(c *cli.Context) (di.Container, error) {
	return di.New(
		di.WithConfigPath(c.String("config")),
		di.WithCatalogURL(c.String("catalog-url")),
	)
}

// parseRef parses the --ref flag
func parseRef(c *cli.Context) (entity.Ref, error) {
	return entity.ParseRef(c.String("ref"))
}

// printJSON writes v to stdout as indented JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
