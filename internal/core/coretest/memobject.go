package coretest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/markdave123-py/counsel/internal/core"
)

type object struct {
	data        []byte
	contentType string
}

// MemObjects is an in-memory bucket. Set FailUploads or FailDeletes to
// simulate an unavailable store. A non-nil ReadErr is returned by every read.
type MemObjects struct {
	mu      sync.Mutex
	objects map[string]object

	FailUploads bool
	FailDeletes bool
	ReadErr     error
}

var _ core.ObjectClient = (*MemObjects)(nil)

var ErrUnavailable = errors.New("object store unavailable")

func NewMemObjects() *MemObjects {
	return &MemObjects{objects: map[string]object{}}
}

func (s *MemObjects) UploadFile(_ context.Context, key string, data io.Reader, _ int64, contentType string) error {
	if s.FailUploads {
		return ErrUnavailable
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: b, contentType: contentType}
	return nil
}

func (s *MemObjects) DeleteFile(_ context.Context, key string) error {
	if s.FailDeletes {
		return ErrUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemObjects) GetFile(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	o, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrObjectNotFound, key)
	}
	return bytes.Clone(o.data), nil
}

func (s *MemObjects) GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error) {
	b, err := s.GetFile(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Has reports whether key currently holds an object.
func (s *MemObjects) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Len is the number of stored objects.
func (s *MemObjects) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
