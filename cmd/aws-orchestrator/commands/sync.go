package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/catalogops/aws-orchestrator/internal/objectsync"
)

// SyncAssetsCommand returns the sync-assets command for publishing entity
// assets
func SyncAssetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-assets",
		Usage: "Replace an entity's published assets with a local directory",
		Description: `Publishes a local directory tree to the entity's prefix in the asset
bucket. Everything previously under the prefix is removed first, so the
remote state exactly mirrors the local tree afterwards.

Example:
  aws-orchestrator sync-assets --ref component:default/my-service --dir ./dist`,
		Flags: []cli.Flag{
			configFlag(),
			refFlag(),
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Local directory to publish",
				Required: true,
			},
		},
		Action: syncAssetsAction,
	}
}

func syncAssetsAction(c *cli.Context) error {
	logger := zerolog.Ctx(c.Context)

	ref, err := parseRef(c)
	if err != nil {
		return err
	}

	dir := c.String("dir")
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot read --dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("--dir %s is not a directory", dir)
	}

	container, err := newContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(engine *objectsync.Engine) error {
		if err := engine.SyncEntityAssets(c.Context, ref, dir); err != nil {
			return err
		}
		logger.Info().
			Str("ref", ref.String()).
			Str("dir", dir).
			Msg("Entity assets synchronized")
		return nil
	})
}
