package objectclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfg "github.com/markdave123-py/counsel/internal/config"
	"github.com/markdave123-py/counsel/internal/core"
)

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>missing.txt</Key><RequestId>req-1</RequestId></Error>`

// fakeS3 serves path-style requests for a single bucket holding one object.
type fakeS3 struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/test-bucket/present.txt":
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("hello"))
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, noSuchKeyBody)
	}
}

func (f *fakeS3) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func newStubClient(t *testing.T) (*S3Client, *fakeS3) {
	t.Helper()
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewS3Client(context.Background(), &cfg.Config{
		AwsRegion:    "us-east-1",
		BucketName:   "test-bucket",
		S3Endpoint:   srv.URL,
		AwsAccessKey: "AKIDTEST",
		AwsSecretKey: "secret",
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return c, fake
}

func TestGetObjectReaderMissingKey(t *testing.T) {
	c, fake := newStubClient(t)

	rc, err := c.GetObjectReader(context.Background(), "missing.txt")
	assert.Nil(t, rc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrObjectNotFound), err.Error())
	assert.Equal(t, []string{"GET /test-bucket/missing.txt"}, fake.seen())

	_, err = c.GetFile(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, core.ErrObjectNotFound)
}

func TestGetObjectReaderPresentKey(t *testing.T) {
	c, _ := newStubClient(t)

	body, err := c.GetFile(context.Background(), "present.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	require.NoError(t, c.DeleteFile(context.Background(), "present.txt"))
}

func TestNewS3ClientValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  cfg.Config
	}{
		{"missing region", cfg.Config{BucketName: "b"}},
		{"missing bucket", cfg.Config{AwsRegion: "us-east-1"}},
		{"partial credentials", cfg.Config{AwsRegion: "us-east-1", BucketName: "b", AwsAccessKey: "AKIDTEST"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Client(context.Background(), &tt.cfg, zap.NewNop().Sugar())
			assert.Error(t, err)
		})
	}
}
