// Package catalog defines the catalog lookup collaborator contract and
// the registration poll used after creating a new catalog item.
package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/catalogops/aws-orchestrator/internal/entity"
	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

// Client looks up entities by reference. GetEntityByRef returns nil when
// the entity is not (yet) visible; absence is not an error.
type Client interface {
	GetEntityByRef(ctx context.Context, ref entity.Ref, token string) (*entity.Entity, error)
}

const (
	// registration poll bounds: the catalog read path is eventually
	// consistent, so a freshly created entity may not be visible yet
	maxLookupAttempts = 10
	lookupDelay       = 5 * time.Second
)

// Waiter polls the catalog until a newly registered entity becomes
// visible. Delay is injectable for tests; zero value uses the defaults.
type Waiter struct {
	Client   Client
	Attempts int
	Delay    time.Duration
}

// WaitForEntity polls catalog lookup until the entity appears, up to the
// attempt cap with a fixed inter-attempt delay. This is the only retry
// loop in the core.
func (w Waiter) WaitForEntity(ctx context.Context, ref entity.Ref, token string) (*entity.Entity, error) {
	logger := zerolog.Ctx(ctx)

	attempts := w.Attempts
	if attempts <= 0 {
		attempts = maxLookupAttempts
	}
	delay := w.Delay
	if delay <= 0 {
		delay = lookupDelay
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		ent, err := w.Client.GetEntityByRef(ctx, ref, token)
		if err != nil {
			return nil, err
		}
		if ent != nil {
			return ent, nil
		}

		logger.Info().
			Str("ref", ref.String()).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("Entity not yet visible in catalog")

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, apperrors.ErrEntityNotRegistered
}
