package constants

// Annotation keys read from catalog entity metadata
const (
	// AnnotationAssetLocation points at the entity's published asset
	// location, e.g. "s3://bucket/namespace/component/name/"
	AnnotationAssetLocation = "portal.aws/asset-location"

	// AnnotationTargetAccount overrides the default deployment account
	AnnotationTargetAccount = "portal.aws/target-account"

	// AnnotationTargetRegion overrides the default deployment region
	AnnotationTargetRegion = "portal.aws/target-region"

	// AnnotationBuildProjectArn overrides the default build project
	AnnotationBuildProjectArn = "portal.aws/build-project-arn"

	// Per-action buildspec overrides, checked before the default paths
	AnnotationDeployBuildspec   = "portal.aws/deploy-buildspec"
	AnnotationUpdateBuildspec   = "portal.aws/update-buildspec"
	AnnotationTeardownBuildspec = "portal.aws/teardown-buildspec"
)

// Default buildspec paths, relative to the entity source location
const (
	DefaultDeployBuildspec   = ".portal/deploy.buildspec.yml"
	DefaultUpdateBuildspec   = ".portal/update.buildspec.yml"
	DefaultTeardownBuildspec = ".portal/teardown.buildspec.yml"
)

// Environment variable names injected into build executions
const (
	// EnvTargetAccount encodes the resolved deployment target account id.
	// Injected on every trigger so the same stored variable set produces
	// different effective variables per target.
	EnvTargetAccount = "TARGET_AWS_ACCOUNT"

	// EnvEntityID ties a build back to the owning entity's unique id
	EnvEntityID = "PORTAL_ENTITY_ID"
)

// Parameter name suffixes for per-entity configuration documents
const (
	ParamSuffixBuildParameters = "build-parameters"
	ParamSuffixSourceConfig    = "source-config"
)

// DefaultTargetName is the name of the synthetic account entry returned
// when multi-account mode is disabled
const DefaultTargetName = "DEFAULT"
