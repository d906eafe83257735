package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/catalogops/aws-orchestrator/internal/apicall"
	"github.com/catalogops/aws-orchestrator/internal/entity"
)

// HTTPDoer is the http client surface the catalog client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient looks up entities against the portal catalog REST API
type HTTPClient struct {
	client  HTTPDoer
	baseURL string
}

// NewHTTPClient creates a catalog client for the given base URL
func NewHTTPClient(baseURL string) *HTTPClient {
	return NewHTTPClientWithDoer(&http.Client{Timeout: 30 * time.Second}, baseURL)
}

// NewHTTPClientWithDoer creates a catalog client with an explicit http
// client, primarily for tests
func NewHTTPClientWithDoer(client HTTPDoer, baseURL string) *HTTPClient {
	return &HTTPClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetEntityByRef looks up an entity by reference. A 404 means the entity
// is not (yet) registered and returns nil without error.
func (c *HTTPClient) GetEntityByRef(ctx context.Context, ref entity.Ref, token string) (*entity.Entity, error) {
	lookupURL := fmt.Sprintf("%s/api/catalog/entities/by-name/%s/%s/%s",
		c.baseURL,
		url.PathEscape(ref.Kind),
		url.PathEscape(ref.Namespace),
		url.PathEscape(ref.Name),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request for %s: %w", ref.String(), err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apicall.Classify(ctx, "catalog lookup "+ref.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apicall.Classify(ctx, "catalog lookup "+ref.String(),
			fmt.Errorf("unexpected status %d looking up %s", resp.StatusCode, ref.String()))
	}

	var ent entity.Entity
	if err := json.NewDecoder(resp.Body).Decode(&ent); err != nil {
		return nil, fmt.Errorf("failed to decode catalog entity %s: %w", ref.String(), err)
	}

	// storage paths and object keys are derived from the entity triple,
	// so a malformed triple must never pass this boundary
	if err := ent.Ref().Validate(); err != nil {
		return nil, fmt.Errorf("catalog returned entity with invalid reference: %w", err)
	}
	return &ent, nil
}
