package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/catalogops/aws-orchestrator/internal/builder"
	"github.com/catalogops/aws-orchestrator/internal/catalog"
	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

// BuildsCommand returns the builds command for listing an entity's builds
func BuildsCommand() *cli.Command {
	return &cli.Command{
		Name:  "builds",
		Usage: "List builds owned by an entity",
		Description: `Lists the build project's builds filtered down to those owned by the
entity, as JSON.

Example:
  aws-orchestrator builds --ref component:default/my-service`,
		Flags: []cli.Flag{
			configFlag(),
			refFlag(),
			catalogURLFlag(),
			tokenFlag(),
		},
		Action: buildsAction,
	}
}

func buildsAction(c *cli.Context) error {
	ref, err := parseRef(c)
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

		builds, err := orch.GetBuilds(c.Context, ent)
		if err != nil {
			return err
		}
		return printJSON(builds)
	})
}

// ProjectCommand returns the project command for inspecting the default
// build project
func ProjectCommand() *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Show the default target's build project",
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: projectAction,
	}
}

func projectAction(c *cli.Context) error {
	container, err := newContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(orch *builder.Orchestrator) error {
		project, err := orch.GetProject(c.Context)
		if err != nil {
			return err
		}
		if project == nil {
			fmt.Println("Build project not found")
			return nil
		}
		return printJSON(project)
	})
}
