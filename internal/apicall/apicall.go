// Package apicall wraps every outbound AWS call behind a single
// classification boundary. Callers receive a sanitized error that never
// leaks raw provider internals; the full original error is logged with
// the caller-supplied context so operators keep complete diagnostics.
package apicall

import (
	"context"
	"errors"
	"fmt"

	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/rs/zerolog"

	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

// Do invokes fn and classifies any failure. When the underlying error
// carries an HTTP status code the sanitized message includes it;
// otherwise the status is reported as unknown. No retries happen here;
// retry policy belongs to callers.
func Do[T any](ctx context.Context, callContext string, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		return result, nil
	}
	return result, Classify(ctx, callContext, err)
}

// Classify converts a raw downstream error into the sanitized form. Used
// directly by callers that need to inspect the raw error first, e.g. to
// map a not-found condition before classification.
func Classify(ctx context.Context, callContext string, err error) error {
	logger := zerolog.Ctx(ctx)

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		logger.Error().
			Err(err).
			Str("call_context", callContext).
			Int("status_code", respErr.HTTPStatusCode()).
			Msg("External API call failed")
		return fmt.Errorf("%w: error while calling external API, status code: %d",
			apperrors.ErrExternalService, respErr.HTTPStatusCode())
	}

	logger.Error().
		Err(err).
		Str("call_context", callContext).
		Msg("External API call failed with unknown status")
	return fmt.Errorf("%w: unexpected error while calling external API, status code unknown",
		apperrors.ErrExternalService)
}
