package builder

import (
	"fmt"
	"strings"

	"github.com/catalogops/aws-orchestrator/internal/constants"
)

// Action is an infrastructure operation against an entity
type Action string

const (
	ActionDeploy   Action = "deploy"
	ActionUpdate   Action = "update"
	ActionTeardown Action = "teardown"
)

// ParseAction parses a user-supplied action name
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(s)) {
	case ActionDeploy:
		return ActionDeploy, nil
	case ActionUpdate:
		return ActionUpdate, nil
	case ActionTeardown:
		return ActionTeardown, nil
	default:
		return "", fmt.Errorf("unknown action %q, expected deploy, update or teardown", s)
	}
}

// buildspecAnnotation returns the per-action annotation checked before
// the default path
func (a Action) buildspecAnnotation() string {
	switch a {
	case ActionUpdate:
		return constants.AnnotationUpdateBuildspec
	case ActionTeardown:
		return constants.AnnotationTeardownBuildspec
	default:
		return constants.AnnotationDeployBuildspec
	}
}

// defaultBuildspecPath returns the per-action fallback path relative to
// the entity source location
func (a Action) defaultBuildspecPath() string {
	switch a {
	case ActionUpdate:
		return constants.DefaultUpdateBuildspec
	case ActionTeardown:
		return constants.DefaultTeardownBuildspec
	default:
		return constants.DefaultDeployBuildspec
	}
}
