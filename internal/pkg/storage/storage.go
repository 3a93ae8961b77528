package storage

import (
	"context"
	"io"
)

// Storage abstracts the object store used for archiving voice clips
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}
