// Package fetch reads buildspec bodies and entity asset sources from
// their resolved locations. Locations are either HTTP(S) URLs or object
// store paths in bucket/key form; a missing resource surfaces as the
// distinguishable ErrNotFound so callers can treat it as a soft signal.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/catalogops/aws-orchestrator/internal/apicall"
	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

// Reader fetches the content at a resolved location
type Reader interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPClient abstracts HTTP operations for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// S3Getter abstracts S3 GetObject for testing
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ResolveRelative joins a relative path onto a base location, enforcing a
// single trailing slash on the base. The same resolution applies to
// buildspec paths and asset reads.
func ResolveRelative(base, rel string) string {
	base = strings.TrimRight(base, "/") + "/"
	return base + strings.TrimLeft(rel, "/")
}

// SplitObjectPath splits a bucket/key location into its components
func SplitObjectPath(location string) (bucket, key string, err error) {
	location = strings.TrimPrefix(location, "s3://")
	bucket, key, ok := strings.Cut(location, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid object path %q, expected {bucket}/{key}", location)
	}
	return bucket, key, nil
}

// HTTPReader fetches content over HTTP(S)
type HTTPReader struct {
	Client HTTPClient
}

func (r *HTTPReader) Fetch(ctx context.Context, location string) ([]byte, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", location, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apicall.Classify(ctx, "http fetch "+location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, location)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apicall.Classify(ctx, "http fetch "+location,
			fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, location))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body for %s: %w", location, err)
	}
	return body, nil
}

// S3Reader fetches content from the object store. Locations are
// bucket/key paths, with an optional s3:// scheme tolerated.
type S3Reader struct {
	Client S3Getter
}

func (r *S3Reader) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, key, err := SplitObjectPath(location)
	if err != nil {
		return nil, err
	}

	out, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: s3 object %s", apperrors.ErrNotFound, location)
		}
		return nil, apicall.Classify(ctx, "s3 get-object "+location, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body for %s: %w", location, err)
	}
	return body, nil
}

// AutoReader routes fetches by location scheme: http(s) URLs go to HTTP,
// everything else is treated as an object store path
type AutoReader struct {
	HTTP Reader
	S3   Reader
}

func (r *AutoReader) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return r.HTTP.Fetch(ctx, location)
	}
	return r.S3.Fetch(ctx, location)
}
