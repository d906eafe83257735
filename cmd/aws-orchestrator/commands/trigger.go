package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/catalogops/aws-orchestrator/internal/builder"
	"github.com/catalogops/aws-orchestrator/internal/catalog"
	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

// TriggerCommand returns the trigger command for starting builds
func TriggerCommand() *cli.Command {
	return &cli.Command{
		Name:  "trigger",
		Usage: "Trigger a build for an entity",
		Description: `Resolves the entity's deployment target and triggers a build with its
stored configuration.

Examples:
  # Deploy an entity
  aws-orchestrator trigger --ref component:default/my-service --action deploy

  # Tear an entity down
  aws-orchestrator trigger --ref component:default/my-service --action teardown`,
		Flags: []cli.Flag{
			configFlag(),
			refFlag(),
			catalogURLFlag(),
			tokenFlag(),
			&cli.StringFlag{
				Name:     "action",
				Aliases:  []string{"a"},
				Usage:    "Build action: deploy, update or teardown",
				Required: true,
				EnvVars:  []string{"BUILD_ACTION"},
			},
		},
		Action: triggerAction,
	}
}

func triggerAction(c *cli.Context) error {
	logger := zerolog.Ctx(c.Context)

	ref, err := parseRef(c)
	if err != nil {
		return err
	}

	action, err := builder.ParseAction(c.String("action"))
	if err != nil {
		return err
	}

	container, err := newContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(client catalog.Client, orch *builder.Orchestrator) error {
		ent, err := client.GetEntityByRef(c.Context, ref, c.String("token"))
		if err != nil {
			return err
		}
		if ent == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrEntityNotRegistered, ref.String())
		}

		result, err := orch.StartBuild(c.Context, ent, action)
		if err != nil {
			return err
		}

		if !result.Started {
			logger.Warn().
				Str("ref", ref.String()).
				Str("action", string(action)).
				Msg("No build started")
		}
		return printJSON(result)
	})
}
