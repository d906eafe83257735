package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/catalogops/aws-orchestrator/internal/errors"
)

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		name string
		base string
		rel  string
		want string
	}{
		{
			name: "base without trailing slash",
			base: "bucket/ns/component/svc",
			rel:  ".portal/deploy.buildspec.yml",
			want: "bucket/ns/component/svc/.portal/deploy.buildspec.yml",
		},
		{
			name: "base with trailing slash",
			base: "bucket/ns/component/svc/",
			rel:  ".portal/deploy.buildspec.yml",
			want: "bucket/ns/component/svc/.portal/deploy.buildspec.yml",
		},
		{
			name: "doubled slashes collapse",
			base: "https://example.com/assets//",
			rel:  "/spec.yml",
			want: "https://example.com/assets/spec.yml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveRelative(tt.base, tt.rel); got != tt.want {
				t.Errorf("ResolveRelative() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitObjectPath(t *testing.T) {
	bucket, key, err := SplitObjectPath("s3://my-bucket/some/key.yml")
	assert.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "some/key.yml", key)

	bucket, key, err = SplitObjectPath("my-bucket/key.yml")
	assert.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "key.yml", key)

	_, _, err = SplitObjectPath("just-a-bucket")
	assert.Error(t, err)
}

type fakeHTTPClient struct {
	status int
	body   string
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func TestHTTPReaderFetch(t *testing.T) {
	r := &HTTPReader{Client: &fakeHTTPClient{status: 200, body: "version: 0.2"}}
	body, err := r.Fetch(context.Background(), "https://example.com/spec.yml")
	assert.NoError(t, err)
	assert.Equal(t, "version: 0.2", string(body))
}

func TestHTTPReaderNotFound(t *testing.T) {
	r := &HTTPReader{Client: &fakeHTTPClient{status: 404}}
	_, err := r.Fetch(context.Background(), "https://example.com/missing.yml")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHTTPReaderServerError(t *testing.T) {
	r := &HTTPReader{Client: &fakeHTTPClient{status: 500}}
	_, err := r.Fetch(context.Background(), "https://example.com/spec.yml")
	assert.ErrorIs(t, err, apperrors.ErrExternalService)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

type fakeS3Getter struct {
	objects map[string]string
}

func (f *fakeS3Getter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *params.Bucket + "/" + *params.Key
	body, ok := f.objects[key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestS3ReaderFetch(t *testing.T) {
	r := &S3Reader{Client: &fakeS3Getter{objects: map[string]string{
		"my-bucket/specs/deploy.yml": "version: 0.2",
	}}}

	body, err := r.Fetch(context.Background(), "my-bucket/specs/deploy.yml")
	assert.NoError(t, err)
	assert.Equal(t, "version: 0.2", string(body))

	// scheme-prefixed form resolves to the same object
	body, err = r.Fetch(context.Background(), "s3://my-bucket/specs/deploy.yml")
	assert.NoError(t, err)
	assert.Equal(t, "version: 0.2", string(body))
}

func TestS3ReaderNotFound(t *testing.T) {
	r := &S3Reader{Client: &fakeS3Getter{objects: map[string]string{}}}
	_, err := r.Fetch(context.Background(), "my-bucket/missing.yml")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAutoReaderRouting(t *testing.T) {
	auto := &AutoReader{
		HTTP: &HTTPReader{Client: &fakeHTTPClient{status: 200, body: "from-http"}},
		S3: &S3Reader{Client: &fakeS3Getter{objects: map[string]string{
			"bucket/key.yml": "from-s3",
		}}},
	}

	body, err := auto.Fetch(context.Background(), "https://example.com/spec.yml")
	assert.NoError(t, err)
	assert.Equal(t, "from-http", string(body))

	body, err = auto.Fetch(context.Background(), "bucket/key.yml")
	assert.NoError(t, err)
	assert.Equal(t, "from-s3", string(body))
}
