// Package configstore persists per-entity build configuration as
// encrypted parameters: the environment variable set and the source
// override config. Documents are written whole (overwrite, never patch)
// and keyed by paths derived from the lower-cased entity triple.
package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"

	"github.com/catalogops/aws-orchestrator/internal/apicall"
	"github.com/catalogops/aws-orchestrator/internal/constants"
	"github.com/catalogops/aws-orchestrator/internal/entity"
	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

// EnvVar is a single build environment variable. Sets are ordered and
// unique by name; merges are last-write-wins.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SSMAPI is the parameter store surface the config store needs
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// Store reads and writes per-entity configuration documents
type Store struct {
	client SSMAPI
	prefix string
}

// New creates a Store rooted at the given parameter path prefix
func New(client SSMAPI, prefix string) *Store {
	return &Store{client: client, prefix: normalizePrefix(prefix)}
}

// ParameterName derives the deterministic parameter path for one of an
// entity's documents. Distinct entities never collide: the lower-cased
// triple components are slash-separated and contain no slashes.
func (s *Store) ParameterName(ref entity.Ref, suffix string) string {
	return fmt.Sprintf("%s/%s/%s", s.prefix, ref.Path(), suffix)
}

// StoreEnvironmentVariables replaces the entity's stored environment
// variable set wholesale
func (s *Store) StoreEnvironmentVariables(ctx context.Context, ref entity.Ref, vars []EnvVar) error {
	data, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("failed to serialize environment variables: %w", err)
	}
	return s.putParameter(ctx, s.ParameterName(ref, constants.ParamSuffixBuildParameters), string(data))
}

// RetrieveEnvironmentVariables reads the stored set. A build cannot start
// without a configured environment, so an absent or empty document is
// ErrConfigurationNotFound.
func (s *Store) RetrieveEnvironmentVariables(ctx context.Context, ref entity.Ref) ([]EnvVar, error) {
	name := s.ParameterName(ref, constants.ParamSuffixBuildParameters)

	value, found, err := s.getParameter(ctx, name)
	if err != nil {
		return nil, err
	}
	if !found || value == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConfigurationNotFound, name)
	}

	var vars []EnvVar
	if err := json.Unmarshal([]byte(value), &vars); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables at %s: %w", name, err)
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConfigurationNotFound, name)
	}
	return vars, nil
}

// StoreSourceConfig replaces the entity's stored source override config
func (s *Store) StoreSourceConfig(ctx context.Context, ref entity.Ref, cfg SourceConfig) error {
	data, err := MarshalSourceConfig(cfg)
	if err != nil {
		return err
	}
	return s.putParameter(ctx, s.ParameterName(ref, constants.ParamSuffixSourceConfig), string(data))
}

// RetrieveSourceConfig reads the stored variant. When the stored variant
// derives from entity assets and the entity currently carries an
// asset-location annotation, the source type and location are recomputed
// fresh from that annotation. The result is only valid for the current
// trigger and must not be cached.
func (s *Store) RetrieveSourceConfig(ctx context.Context, ent *entity.Entity) (SourceConfig, error) {
	ref := ent.Ref()
	name := s.ParameterName(ref, constants.ParamSuffixSourceConfig)

	value, found, err := s.getParameter(ctx, name)
	if err != nil {
		return nil, err
	}
	if !found || value == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConfigurationNotFound, name)
	}

	cfg, err := UnmarshalSourceConfig([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("failed to parse source config at %s: %w", name, err)
	}

	if assetSource, ok := cfg.(EntityAssetSource); ok {
		if location := ent.Annotation(constants.AnnotationAssetLocation); location != "" {
			sourceType, sourceLocation := DeriveAssetSource(location)
			assetSource.SourceType = sourceType
			assetSource.SourceLocation = sourceLocation

			zerolog.Ctx(ctx).Debug().
				Str("ref", ref.String()).
				Str("source_location", sourceLocation).
				Msg("Re-derived source config from entity asset location")
			return assetSource, nil
		}
	}
	return cfg, nil
}

func (s *Store) putParameter(ctx context.Context, name, value string) error {
	_, err := apicall.Do(ctx, "ssm put-parameter "+name, func() (*ssm.PutParameterOutput, error) {
		return s.client.PutParameter(ctx, &ssm.PutParameterInput{
			Name:      aws.String(name),
			Value:     aws.String(value),
			Type:      ssmtypes.ParameterTypeSecureString,
			Overwrite: aws.Bool(true),
		})
	})
	return err
}

func (s *Store) getParameter(ctx context.Context, name string) (string, bool, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", false, nil
		}
		return "", false, apicall.Classify(ctx, "ssm get-parameter "+name, err)
	}

	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", false, nil
	}
	return *out.Parameter.Value, true, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}
