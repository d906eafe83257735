package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/catalogops/aws-orchestrator/internal/catalog"
	"github.com/catalogops/aws-orchestrator/internal/configstore"
	"github.com/catalogops/aws-orchestrator/internal/constants"
)

// ConfigureCommand returns the configure command for storing per-entity
// build configuration
func ConfigureCommand() *cli.Command {
	return &cli.Command{
		Name:  "configure",
		Usage: "Store build parameters and source config for an entity",
		Description: `Waits for the entity to become visible in the catalog, then stores its
build configuration in the parameter store.

Examples:
  # Store build environment variables
  aws-orchestrator configure --ref component:default/my-service \
    --var STACK_NAME=my-service --var STAGE=prod

  # Let the build source follow the entity's published assets
  aws-orchestrator configure --ref component:default/my-service \
    --use-entity-assets

  # Pin the build source explicitly
  aws-orchestrator configure --ref component:default/my-service \
    --source-type S3 --source-location my-bucket/releases/v1.2.3 \
    --source-version v1.2.3`,
		Flags: []cli.Flag{
			configFlag(),
			refFlag(),
			catalogURLFlag(),
			tokenFlag(),
			&cli.StringSliceFlag{
				Name:    "var",
				Aliases: []string{"v"},
				Usage:   "Build environment variable as NAME=VALUE (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "use-entity-assets",
				Usage: "Derive the build source from the entity's asset location at trigger time",
			},
			&cli.StringFlag{
				Name:  "source-type",
				Usage: "Pinned source type (e.g. S3)",
			},
			&cli.StringFlag{
				Name:  "source-location",
				Usage: "Pinned source location",
			},
			&cli.StringFlag{
				Name:  "source-version",
				Usage: "Pinned source version",
			},
		},
		Action: configureAction,
	}
}

func configureAction(c *cli.Context) error {
	logger := zerolog.Ctx(c.Context)

	ref, err := parseRef(c)
	if err != nil {
		return err
	}

	varFlags := c.StringSlice("var")
	useAssets := c.Bool("use-entity-assets")
	sourceType := c.String("source-type")

	if len(varFlags) == 0 && !useAssets && sourceType == "" {
		return fmt.Errorf("nothing to configure: pass --var, --use-entity-assets or --source-type")
	}
	if useAssets && sourceType != "" {
		return fmt.Errorf("cannot specify both --use-entity-assets and --source-type")
	}

	container, err := newContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(client catalog.Client, store *configstore.Store) error {
		waiter := catalog.Waiter{Client: client}
		ent, err := waiter.WaitForEntity(c.Context, ref, c.String("token"))
		if err != nil {
			return err
		}

		if len(varFlags) > 0 {
			vars, err := parseEnvVars(varFlags)
			if err != nil {
				return err
			}

			// the ownership tag is stored with the set so triggered
			// builds can be attributed back to the entity
			vars = append(vars, configstore.EnvVar{
				Name:  constants.EnvEntityID,
				Value: ent.Metadata.UID,
			})

			if err := store.StoreEnvironmentVariables(c.Context, ref, vars); err != nil {
				return err
			}
			logger.Info().
				Str("ref", ref.String()).
				Int("vars", len(vars)).
				Msg("Stored build parameters")
		}

		if useAssets {
			srcType, location := configstore.DeriveAssetSource(ent.Annotation(constants.AnnotationAssetLocation))
			err = store.StoreSourceConfig(c.Context, ref, configstore.EntityAssetSource{
				SourceType:     srcType,
				SourceLocation: location,
			})
		} else if sourceType != "" {
			err = store.StoreSourceConfig(c.Context, ref, configstore.PinnedSource{
				SourceType:     sourceType,
				SourceLocation: c.String("source-location"),
				SourceVersion:  c.String("source-version"),
			})
		} else {
			return nil
		}
		if err != nil {
			return err
		}

		logger.Info().Str("ref", ref.String()).Msg("Stored source config")
		return nil
	})
}

// parseEnvVars parses NAME=VALUE pairs, rejecting the reserved ownership
// tag name
func parseEnvVars(pairs []string) ([]configstore.EnvVar, error) {
	vars := make([]configstore.EnvVar, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, expected NAME=VALUE", pair)
		}
		if name == constants.EnvEntityID {
			return nil, fmt.Errorf("%s is reserved and set automatically", constants.EnvEntityID)
		}
		vars = append(vars, configstore.EnvVar{Name: name, Value: value})
	}
	return vars, nil
}
