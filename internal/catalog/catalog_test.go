package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/catalogops/aws-orchestrator/internal/entity"
	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

// fakeClient returns nil for the first visibleAfter-1 calls, then the entity
type fakeClient struct {
	calls        int
	visibleAfter int
	err          error
}

func (f *fakeClient) GetEntityByRef(ctx context.Context, ref entity.Ref, token string) (*entity.Entity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= f.visibleAfter {
		return &entity.Entity{
			Kind:     ref.Kind,
			Metadata: entity.Metadata{Namespace: ref.Namespace, Name: ref.Name, UID: "uid-1"},
		}, nil
	}
	return nil, nil
}

func TestWaitForEntityEventuallyVisible(t *testing.T) {
	client := &fakeClient{visibleAfter: 3}
	w := Waiter{Client: client, Attempts: 10, Delay: time.Millisecond}

	ent, err := w.WaitForEntity(context.Background(), entity.NewRef("component", "default", "svc"), "token")
	assert.NoError(t, err)
	assert.NotNil(t, ent)
	assert.Equal(t, 3, client.calls)
}

func TestWaitForEntityExhaustsAttempts(t *testing.T) {
	client := &fakeClient{visibleAfter: 100}
	w := Waiter{Client: client, Attempts: 4, Delay: time.Millisecond}

	_, err := w.WaitForEntity(context.Background(), entity.NewRef("component", "default", "svc"), "token")
	assert.ErrorIs(t, err, apperrors.ErrEntityNotRegistered)
	assert.Equal(t, 4, client.calls)
}

func TestWaitForEntityLookupFailureIsFatal(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("catalog unavailable")}
	w := Waiter{Client: client, Attempts: 5, Delay: time.Millisecond}

	_, err := w.WaitForEntity(context.Background(), entity.NewRef("component", "default", "svc"), "token")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrEntityNotRegistered)
	// no retry on hard lookup failures
	assert.Equal(t, 1, client.calls)
}

func TestWaitForEntityContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{visibleAfter: 100}
	w := Waiter{Client: client, Attempts: 5, Delay: time.Second}

	_, err := w.WaitForEntity(ctx, entity.NewRef("component", "default", "svc"), "token")
	assert.ErrorIs(t, err, context.Canceled)
}
