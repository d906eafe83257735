// Package entity models catalog entity references and metadata as seen by
// the orchestration core. The catalog itself is an external collaborator;
// this package only carries the fields the core reads.
package entity

import (
	"fmt"
	"strings"

	"github.com/catalogops/aws-orchestrator/internal/errors"
)

// Ref identifies a catalog entity by kind, namespace and name.
// All three components are lower-cased on construction so that derived
// storage paths are case-insensitive and injective.
type Ref struct {
	Kind      string
	Namespace string
	Name      string
}

// NewRef creates a Ref, lower-casing all components
func NewRef(kind, namespace, name string) Ref {
	return Ref{
		Kind:      strings.ToLower(kind),
		Namespace: strings.ToLower(namespace),
		Name:      strings.ToLower(name),
	}
}

// ParseRef parses a reference in the form {kind}:{namespace}/{name}
func ParseRef(s string) (Ref, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Ref{}, fmt.Errorf("%w: %s, expected {kind}:{namespace}/{name}", errors.ErrInvalidEntityRef, s)
	}
	namespace, name, ok := strings.Cut(rest, "/")
	if !ok {
		return Ref{}, fmt.Errorf("%w: %s, expected {kind}:{namespace}/{name}", errors.ErrInvalidEntityRef, s)
	}

	ref := NewRef(kind, namespace, name)
	if err := ref.Validate(); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

// Validate rejects refs with empty components or components containing a
// path separator. Components become slash-separated segments in parameter
// names and object keys, so a slash inside a component would let two
// distinct refs derive the same path.
func (r Ref) Validate() error {
	for _, component := range []string{r.Kind, r.Namespace, r.Name} {
		if component == "" || strings.Contains(component, "/") {
			return fmt.Errorf("%w: %q", errors.ErrInvalidEntityRef, r.String())
		}
	}
	return nil
}

// String returns the canonical {kind}:{namespace}/{name} form
func (r Ref) String() string {
	return fmt.Sprintf("%s:%s/%s", r.Kind, r.Namespace, r.Name)
}

// Path returns the {kind}/{namespace}/{name} form used to derive storage
// key paths. Distinct validated refs never collide since components are
// separated by slashes and Validate rejects components containing any.
func (r Ref) Path() string {
	return fmt.Sprintf("%s/%s/%s", r.Kind, r.Namespace, r.Name)
}

// Metadata carries the catalog metadata fields the core reads
type Metadata struct {
	Namespace   string            `json:"namespace"`
	Name        string            `json:"name"`
	UID         string            `json:"uid"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Entity is a catalog-registered item resolved by reference
type Entity struct {
	Kind     string   `json:"kind"`
	Metadata Metadata `json:"metadata"`
}

// Ref derives the lower-cased reference for this entity
func (e *Entity) Ref() Ref {
	return NewRef(e.Kind, e.Metadata.Namespace, e.Metadata.Name)
}

// Annotation returns the named annotation value, or "" when absent
func (e *Entity) Annotation(key string) string {
	if e.Metadata.Annotations == nil {
		return ""
	}
	return e.Metadata.Annotations[key]
}
