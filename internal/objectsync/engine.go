// Package objectsync publishes entity assets to the object store with
// full-replace semantics: everything under the entity's key prefix is
// deleted, then the local directory tree is uploaded. Both phases run
// under bounded concurrency so the engine never fans out unbounded
// request volume against the store.
package objectsync

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/savaki/gox/slicex"

	"github.com/catalogops/aws-orchestrator/internal/apicall"
	"github.com/catalogops/aws-orchestrator/internal/entity"
	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

// DefaultConcurrency bounds in-flight requests per phase
const DefaultConcurrency = 10

// S3API is the object store surface the engine needs
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Engine synchronizes local directory trees into the object store
type Engine struct {
	client     S3API
	bucket     string
	rootPrefix string

	// per-phase caps, tunable independently
	DeleteConcurrency int
	UploadConcurrency int
}

// New creates an Engine for a bucket with an optional root key prefix
func New(client S3API, bucket, rootPrefix string) *Engine {
	return &Engine{
		client:            client,
		bucket:            bucket,
		rootPrefix:        rootPrefix,
		DeleteConcurrency: DefaultConcurrency,
		UploadConcurrency: DefaultConcurrency,
	}
}

// EntityPrefix derives the entity-scoped key prefix, trailing slash
// included
func EntityPrefix(rootPrefix string, ref entity.Ref) string {
	prefix := fmt.Sprintf("%s/%s/%s/", ref.Namespace, ref.Kind, ref.Name)
	if rootPrefix != "" {
		prefix = strings.TrimRight(rootPrefix, "/") + "/" + prefix
	}
	return prefix
}

// RemoteKey computes the canonical remote key for a local file. The
// namespace/kind/name segments are forced lower-case so entity
// addressing is case-insensitive, while asset file casing is preserved.
// Separators are posix regardless of the source OS.
func RemoteKey(rootPrefix string, ref entity.Ref, relPath string) string {
	return EntityPrefix(rootPrefix, ref) + filepath.ToSlash(relPath)
}

// SyncEntityAssets replaces everything under the entity's prefix with the
// contents of localDir. Deletion fully completes before upload begins; a
// retried sync converges through the same delete-then-upload pattern.
func (e *Engine) SyncEntityAssets(ctx context.Context, ref entity.Ref, localDir string) error {
	logger := zerolog.Ctx(ctx)
	prefix := EntityPrefix(e.rootPrefix, ref)

	keys, err := e.ListAllUnderPrefix(ctx, prefix)
	if err != nil {
		return err
	}

	logger.Info().
		Str("ref", ref.String()).
		Str("prefix", prefix).
		Int("existing_objects", len(keys)).
		Msg("Replacing entity assets")

	if err := e.DeleteAll(ctx, keys); err != nil {
		return err
	}
	return e.UploadTree(ctx, ref, localDir, prefix)
}

// ListAllUnderPrefix accumulates every key under a prefix, paginating on
// the continuation token until exhausted. Zero-result pages need no
// special casing: empty contents append nothing and the loop follows the
// returned token.
func (e *Engine) ListAllUnderPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string

	for {
		out, err := apicall.Do(ctx, "s3 list-objects "+prefix, func() (*s3.ListObjectsV2Output, error) {
			return e.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(e.bucket),
				Prefix:            aws.String(prefix),
				ContinuationToken: token,
			})
		})
		if err != nil {
			return nil, err
		}

		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}

		if out.NextContinuationToken == nil {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}

// DeleteAll deletes every key under the configured cap. Each delete is an
// independent unit of work: one failure never blocks or cancels the
// others, but any failure fails the whole operation once all are
// attempted.
func (e *Engine) DeleteAll(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	callback := func(ctx context.Context, key string) (string, error) {
		_, err := apicall.Do(ctx, "s3 delete-object "+key, func() (*s3.DeleteObjectOutput, error) {
			return e.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(e.bucket),
				Key:    aws.String(key),
			})
		})
		return key, err
	}

	_, err := slicex.MapConcurrent(callback).
		Concurrency(e.DeleteConcurrency).
		CollectErrors().
		DoValues(ctx, keys...)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("keys", len(keys)).Msg("Bulk delete finished with failures")
		return fmt.Errorf("%w: failed to delete existing objects", apperrors.ErrBulkOperationFailed)
	}
	return nil
}

// UploadTree uploads every file under localDir to remotePrefix, posix
// relative paths appended. Partial uploads are not rolled back; the
// surrounding replace pattern makes retries converge.
func (e *Engine) UploadTree(ctx context.Context, ref entity.Ref, localDir, remotePrefix string) error {
	logger := zerolog.Ctx(ctx)

	files, err := listLocalFiles(localDir)
	if err != nil {
		return fmt.Errorf("failed to walk local directory %s: %w", localDir, err)
	}

	callback := func(ctx context.Context, rel string) (string, error) {
		key := remotePrefix + filepath.ToSlash(rel)
		return key, e.uploadFile(ctx, filepath.Join(localDir, rel), key)
	}

	_, err = slicex.MapConcurrent(callback).
		Concurrency(e.UploadConcurrency).
		CollectErrors().
		DoValues(ctx, files...)
	if err != nil {
		logger.Error().
			Err(err).
			Str("ref", ref.String()).
			Str("prefix", remotePrefix).
			Msg("Bulk upload finished with failures")
		return fmt.Errorf("%w: failed to upload entity assets", apperrors.ErrBulkOperationFailed)
	}

	logger.Info().
		Str("ref", ref.String()).
		Str("prefix", remotePrefix).
		Int("files", len(files)).
		Msg("Uploaded entity assets")
	return nil
}

func (e *Engine) uploadFile(ctx context.Context, path, key string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	_, err = apicall.Do(ctx, "s3 put-object "+key, func() (*s3.PutObjectOutput, error) {
		return e.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(e.bucket),
			Key:    aws.String(key),
			Body:   file,
		})
	})
	return err
}

// listLocalFiles returns all regular files under dir as relative paths
func listLocalFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
