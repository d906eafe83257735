package configstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source types understood by the build service
const (
	SourceTypeS3       = "S3"
	SourceTypeNoSource = "NO_SOURCE"
)

// SourceConfig describes where build source comes from for an entity. It
// is one of two cases: EntityAssetSource (derive from the entity's
// published assets at trigger time) or PinnedSource (explicit pinned
// type/location/version).
type SourceConfig interface {
	sourceConfig()
}

// EntityAssetSource derives its type and location live from the entity's
// current asset-location annotation. The derived fields can change
// between triggers as the entity's assets move.
type EntityAssetSource struct {
	SourceType     string
	SourceLocation string
}

func (EntityAssetSource) sourceConfig() {}

// PinnedSource is an explicit, stable source reference
type PinnedSource struct {
	SourceType     string
	SourceLocation string
	SourceVersion  string
}

func (PinnedSource) sourceConfig() {}

// sourceConfigDoc is the tagged persisted form of either case
type sourceConfigDoc struct {
	UseEntityAssets bool   `json:"useEntityAssets"`
	SourceType      string `json:"sourceType,omitempty"`
	SourceLocation  string `json:"sourceLocation,omitempty"`
	SourceVersion   string `json:"sourceVersion,omitempty"`
}

// MarshalSourceConfig serializes either case to the tagged JSON document
func MarshalSourceConfig(cfg SourceConfig) ([]byte, error) {
	var doc sourceConfigDoc
	switch c := cfg.(type) {
	case EntityAssetSource:
		doc = sourceConfigDoc{
			UseEntityAssets: true,
			SourceType:      c.SourceType,
			SourceLocation:  c.SourceLocation,
		}
	case PinnedSource:
		doc = sourceConfigDoc{
			UseEntityAssets: false,
			SourceType:      c.SourceType,
			SourceLocation:  c.SourceLocation,
			SourceVersion:   c.SourceVersion,
		}
	default:
		return nil, fmt.Errorf("unsupported source config type %T", cfg)
	}
	return json.Marshal(doc)
}

// UnmarshalSourceConfig decodes the tagged JSON document into the
// matching case
func UnmarshalSourceConfig(data []byte) (SourceConfig, error) {
	var doc sourceConfigDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if doc.UseEntityAssets {
		return EntityAssetSource{
			SourceType:     doc.SourceType,
			SourceLocation: doc.SourceLocation,
		}, nil
	}
	return PinnedSource{
		SourceType:     doc.SourceType,
		SourceLocation: doc.SourceLocation,
		SourceVersion:  doc.SourceVersion,
	}, nil
}

// DeriveAssetSource computes a source type and location from an entity
// asset-location annotation value. Object store URLs become S3 sources in
// bucket/key path form; other URLs get their scheme stripped and no
// usable source type.
func DeriveAssetSource(location string) (sourceType, sourceLocation string) {
	if after, ok := strings.CutPrefix(location, "s3://"); ok {
		return SourceTypeS3, after
	}
	if i := strings.Index(location, "://"); i >= 0 {
		return SourceTypeNoSource, location[i+3:]
	}
	// already in path form
	return SourceTypeS3, location
}
