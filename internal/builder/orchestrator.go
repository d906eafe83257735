// Package builder drives build triggers for catalog entities: buildspec
// selection, stored-configuration loading, deployment-target override
// merging and the build service invocation itself.
package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	cbtypes "github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/rs/zerolog"
	"github.com/savaki/gox/slicex"

	"github.com/catalogops/aws-orchestrator/internal/apicall"
	"github.com/catalogops/aws-orchestrator/internal/config"
	"github.com/catalogops/aws-orchestrator/internal/configstore"
	"github.com/catalogops/aws-orchestrator/internal/constants"
	"github.com/catalogops/aws-orchestrator/internal/entity"
	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
	"github.com/catalogops/aws-orchestrator/internal/fetch"
	"github.com/catalogops/aws-orchestrator/internal/metrics"
	"github.com/catalogops/aws-orchestrator/internal/resolver"
)

// batchGetBuildsLimit is the build service's per-call id cap
const batchGetBuildsLimit = 100

// CodeBuildAPI is the build service surface the orchestrator needs
type CodeBuildAPI interface {
	StartBuild(ctx context.Context, params *codebuild.StartBuildInput, optFns ...func(*codebuild.Options)) (*codebuild.StartBuildOutput, error)
	ListBuildsForProject(ctx context.Context, params *codebuild.ListBuildsForProjectInput, optFns ...func(*codebuild.Options)) (*codebuild.ListBuildsForProjectOutput, error)
	BatchGetBuilds(ctx context.Context, params *codebuild.BatchGetBuildsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetBuildsOutput, error)
	BatchGetProjects(ctx context.Context, params *codebuild.BatchGetProjectsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetProjectsOutput, error)
}

// Build is the orchestrator's projection of a build service record
type Build struct {
	ID           string     `json:"id"`
	Arn          string     `json:"arn"`
	BuildNumber  int64      `json:"buildNumber"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	CurrentPhase string     `json:"currentPhase"`
	BuildStatus  string     `json:"buildStatus"`
	ProjectName  string     `json:"projectName"`
}

// TriggerResult reports the outcome of a trigger call. Started=false with
// a nil error is the graceful no-buildspec path, distinguishable from
// both success and failure.
type TriggerResult struct {
	Started bool  `json:"started"`
	Build   Build `json:"build"`
}

// Orchestrator triggers and inspects builds for catalog entities
type Orchestrator struct {
	client CodeBuildAPI
	res    *resolver.Resolver
	store  *configstore.Store
	reader fetch.Reader
	sender *metrics.Sender
	cfg    *config.Config
}

// New creates an Orchestrator
func New(client CodeBuildAPI, res *resolver.Resolver, store *configstore.Store, reader fetch.Reader, sender *metrics.Sender, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		client: client,
		res:    res,
		store:  store,
		reader: reader,
		sender: sender,
		cfg:    cfg,
	}
}

// GetBuildspecForAction fetches the buildspec body for an action: the
// per-action annotation wins over the per-action default path, both
// resolved relative to the entity's asset location. A missing buildspec
// is an expected condition and yields ("", nil); any other fetch failure
// is fatal.
func (o *Orchestrator) GetBuildspecForAction(ctx context.Context, action Action, ent *entity.Entity) (string, error) {
	logger := zerolog.Ctx(ctx)

	base := ent.Annotation(constants.AnnotationAssetLocation)
	if base == "" {
		logger.Warn().
			Str("ref", ent.Ref().String()).
			Str("action", string(action)).
			Msg("Entity has no asset location, cannot resolve buildspec")
		return "", nil
	}

	path := ent.Annotation(action.buildspecAnnotation())
	if path == "" {
		path = action.defaultBuildspecPath()
	}

	location := fetch.ResolveRelative(base, path)
	body, err := o.reader.Fetch(ctx, location)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn().
				Str("ref", ent.Ref().String()).
				Str("location", location).
				Msg("Buildspec not found")
			return "", nil
		}
		return "", err
	}
	return string(body), nil
}

// StartBuild resolves the deployment target, assembles the stored
// configuration with the target override and triggers a build.
// Configuration retrieval failures are fatal; a missing buildspec aborts
// gracefully; the telemetry emit never fails the trigger.
func (o *Orchestrator) StartBuild(ctx context.Context, ent *entity.Entity, action Action) (TriggerResult, error) {
	logger := zerolog.Ctx(ctx)
	ref := ent.Ref()

	target := o.res.Resolve(ent)

	// best effort, non-blocking for the trigger path
	o.sender.Send(ctx, metrics.Event{
		Name:                "build-triggered",
		EntityRef:           ref.String(),
		AccountID:           target.AccountID,
		MultiAccountEnabled: o.cfg.MultiAccountEnabled(),
		NonDefaultAccount:   !o.res.IsDefault(target),
	})

	buildspec, err := o.GetBuildspecForAction(ctx, action, ent)
	if err != nil {
		return TriggerResult{}, err
	}
	if buildspec == "" {
		logger.Error().
			Str("ref", ref.String()).
			Str("action", string(action)).
			Msg("No buildspec available, aborting build trigger")
		return TriggerResult{Started: false}, nil
	}

	vars, err := o.store.RetrieveEnvironmentVariables(ctx, ref)
	if err != nil {
		return TriggerResult{}, err
	}

	source, err := o.store.RetrieveSourceConfig(ctx, ent)
	if err != nil {
		return TriggerResult{}, err
	}

	merged := mergeEnvVar(vars, configstore.EnvVar{
		Name:  constants.EnvTargetAccount,
		Value: target.AccountID,
	})

	input := &codebuild.StartBuildInput{
		ProjectName:                  aws.String(projectNameFromArn(target.BuildProjectArn)),
		BuildspecOverride:            aws.String(buildspec),
		EnvironmentVariablesOverride: toCodeBuildEnv(merged),
	}
	applySourceOverride(input, source)

	out, err := apicall.Do(ctx, "codebuild start-build "+ref.String(), func() (*codebuild.StartBuildOutput, error) {
		return o.client.StartBuild(ctx, input)
	})
	if err != nil {
		return TriggerResult{}, err
	}
	if out.Build == nil {
		return TriggerResult{}, fmt.Errorf("build service returned no build record for %s", ref.String())
	}

	build := fromCodeBuild(*out.Build)
	logger.Info().
		Str("ref", ref.String()).
		Str("action", string(action)).
		Str("build_id", build.ID).
		Str("account", target.AccountID).
		Msg("Started build")

	return TriggerResult{Started: true, Build: build}, nil
}

// GetProject returns the default target's build project descriptor, or
// nil when the project does not exist
func (o *Orchestrator) GetProject(ctx context.Context) (*cbtypes.Project, error) {
	name := projectNameFromArn(o.cfg.DefaultTarget.BuildProjectArn)

	out, err := apicall.Do(ctx, "codebuild batch-get-projects "+name, func() (*codebuild.BatchGetProjectsOutput, error) {
		return o.client.BatchGetProjects(ctx, &codebuild.BatchGetProjectsInput{
			Names: []string{name},
		})
	})
	if err != nil {
		return nil, err
	}
	if len(out.Projects) == 0 {
		return nil, nil
	}
	return &out.Projects[0], nil
}

// GetBuilds lists the entity's builds: all ids for the default project,
// batch-fetched and filtered down to builds whose environment carries the
// ownership tag equal to the entity's unique id. Zero ids short-circuits
// before any batch fetch.
func (o *Orchestrator) GetBuilds(ctx context.Context, ent *entity.Entity) ([]Build, error) {
	projectName := projectNameFromArn(o.cfg.DefaultTarget.BuildProjectArn)

	ids, err := o.listBuildIDs(ctx, projectName)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Build{}, nil
	}

	var owned []cbtypes.Build
	for start := 0; start < len(ids); start += batchGetBuildsLimit {
		end := min(start+batchGetBuildsLimit, len(ids))

		out, err := apicall.Do(ctx, "codebuild batch-get-builds "+projectName, func() (*codebuild.BatchGetBuildsOutput, error) {
			return o.client.BatchGetBuilds(ctx, &codebuild.BatchGetBuildsInput{
				Ids: ids[start:end],
			})
		})
		if err != nil {
			return nil, err
		}

		for _, build := range out.Builds {
			if buildOwnedBy(build, ent.Metadata.UID) {
				owned = append(owned, build)
			}
		}
	}

	return slicex.Map(owned, fromCodeBuild), nil
}

// listBuildIDs paginates sequentially; each page depends on the previous
// page's token
func (o *Orchestrator) listBuildIDs(ctx context.Context, projectName string) ([]string, error) {
	var ids []string
	var nextToken *string

	for {
		out, err := apicall.Do(ctx, "codebuild list-builds-for-project "+projectName, func() (*codebuild.ListBuildsForProjectOutput, error) {
			return o.client.ListBuildsForProject(ctx, &codebuild.ListBuildsForProjectInput{
				ProjectName: aws.String(projectName),
				NextToken:   nextToken,
			})
		})
		if err != nil {
			return nil, err
		}

		ids = append(ids, out.Ids...)

		if out.NextToken == nil {
			return ids, nil
		}
		nextToken = out.NextToken
	}
}

// mergeEnvVar overwrites or appends exactly one entry, preserving the
// stored order (last-write-wins by name)
func mergeEnvVar(vars []configstore.EnvVar, override configstore.EnvVar) []configstore.EnvVar {
	merged := make([]configstore.EnvVar, 0, len(vars)+1)
	replaced := false
	for _, v := range vars {
		if v.Name == override.Name {
			merged = append(merged, override)
			replaced = true
			continue
		}
		merged = append(merged, v)
	}
	if !replaced {
		merged = append(merged, override)
	}
	return merged
}

func toCodeBuildEnv(vars []configstore.EnvVar) []cbtypes.EnvironmentVariable {
	return slicex.Map(vars, func(v configstore.EnvVar) cbtypes.EnvironmentVariable {
		return cbtypes.EnvironmentVariable{
			Name:  aws.String(v.Name),
			Value: aws.String(v.Value),
			Type:  cbtypes.EnvironmentVariableTypePlaintext,
		}
	})
}

// applySourceOverride maps the source config variant onto the build
// input. Only source types the build service can honor are passed along.
func applySourceOverride(input *codebuild.StartBuildInput, source configstore.SourceConfig) {
	var sourceType, location, version string

	switch s := source.(type) {
	case configstore.PinnedSource:
		sourceType, location, version = s.SourceType, s.SourceLocation, s.SourceVersion
	case configstore.EntityAssetSource:
		sourceType, location = s.SourceType, s.SourceLocation
	}

	if sourceType != configstore.SourceTypeS3 || location == "" {
		return
	}

	input.SourceTypeOverride = cbtypes.SourceType(sourceType)
	input.SourceLocationOverride = aws.String(location)
	if version != "" {
		input.SourceVersion = aws.String(version)
	}
}

func buildOwnedBy(build cbtypes.Build, uid string) bool {
	if uid == "" || build.Environment == nil {
		return false
	}
	for _, v := range build.Environment.EnvironmentVariables {
		if aws.ToString(v.Name) == constants.EnvEntityID && aws.ToString(v.Value) == uid {
			return true
		}
	}
	return false
}

func fromCodeBuild(b cbtypes.Build) Build {
	return Build{
		ID:           aws.ToString(b.Id),
		Arn:          aws.ToString(b.Arn),
		BuildNumber:  aws.ToInt64(b.BuildNumber),
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		CurrentPhase: aws.ToString(b.CurrentPhase),
		BuildStatus:  string(b.BuildStatus),
		ProjectName:  aws.ToString(b.ProjectName),
	}
}

// projectNameFromArn extracts the project name from an ARN like
// arn:aws:codebuild:us-west-2:111122223333:project/my-project. A value
// without the project separator is assumed to already be a name.
func projectNameFromArn(arn string) string {
	if _, name, ok := strings.Cut(arn, ":project/"); ok {
		return name
	}
	return arn
}
