// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (AWS S3, MinIO).
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the targeted object does not exist.
var ErrNotFound = errors.New("object not found")

// Object describes a stored object as reported by the backend.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// KeyError reports the failure of a single key inside a batch operation.
type KeyError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Storage is the interface for managing objects in the backing bucket.
type Storage interface {
	// Upload streams data to the store under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Delete removes a single object. Returns ErrNotFound when the key
	// does not exist.
	Delete(ctx context.Context, key string) error

	// DeleteMany removes all given keys in one batch call and reports
	// which keys were removed and which failed. A non-nil error means
	// the batch call itself could not be issued.
	DeleteMany(ctx context.Context, keys []string) (deleted []string, failed []KeyError, err error)

	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}
