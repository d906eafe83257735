package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogops/aws-orchestrator/internal/entity"
	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

type fakeDoer struct {
	requests []*http.Request
	status   int
	body     string
	err      error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func TestGetEntityByRef(t *testing.T) {
	doer := &fakeDoer{
		status: http.StatusOK,
		body: `{
			"kind": "Component",
			"metadata": {
				"namespace": "default",
				"name": "my-service",
				"uid": "uid-123",
				"annotations": {"portal.aws/target-region": "us-west-2"}
			}
		}`,
	}
	client := NewHTTPClientWithDoer(doer, "https://portal.example.com/")

	ent, err := client.GetEntityByRef(context.Background(), entity.NewRef("component", "default", "my-service"), "secret-token")
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, "uid-123", ent.Metadata.UID)
	assert.Equal(t, "us-west-2", ent.Annotation("portal.aws/target-region"))

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, "https://portal.example.com/api/catalog/entities/by-name/component/default/my-service", req.URL.String())
	assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
}

func TestGetEntityByRefNotFound(t *testing.T) {
	doer := &fakeDoer{status: http.StatusNotFound}
	client := NewHTTPClientWithDoer(doer, "https://portal.example.com")

	ent, err := client.GetEntityByRef(context.Background(), entity.NewRef("component", "default", "missing"), "")
	require.NoError(t, err)
	assert.Nil(t, ent)

	// anonymous lookup sends no authorization header
	assert.Empty(t, doer.requests[0].Header.Get("Authorization"))
}

func TestGetEntityByRefRejectsInvalidTriple(t *testing.T) {
	doer := &fakeDoer{
		status: http.StatusOK,
		body: `{
			"kind": "component",
			"metadata": {"namespace": "default", "name": "a/b", "uid": "uid-1"}
		}`,
	}
	client := NewHTTPClientWithDoer(doer, "https://portal.example.com")

	_, err := client.GetEntityByRef(context.Background(), entity.NewRef("component", "default", "svc"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidEntityRef)
}

func TestGetEntityByRefServerError(t *testing.T) {
	doer := &fakeDoer{status: http.StatusInternalServerError}
	client := NewHTTPClientWithDoer(doer, "https://portal.example.com")

	_, err := client.GetEntityByRef(context.Background(), entity.NewRef("component", "default", "svc"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrExternalService)
}

func TestGetEntityByRefTransportError(t *testing.T) {
	doer := &fakeDoer{err: fmt.Errorf("connection refused")}
	client := NewHTTPClientWithDoer(doer, "https://portal.example.com")

	_, err := client.GetEntityByRef(context.Background(), entity.NewRef("component", "default", "svc"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrExternalService)
}
