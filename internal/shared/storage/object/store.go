package object

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// Store saves and retrieves blobs by key.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
