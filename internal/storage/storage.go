// Package storage provides blob storage for raw feed backups and
// precomputed daily snapshots. The pipeline consumes the ObjectStore
// interface; the production implementation targets any S3-compatible
// endpoint through the MinIO client.
package storage

import (
	"context"
	"time"
)

// ObjectStore is the blob storage contract used by the sync and
// precompute jobs. Objects are disposable derived data; the store is
// never the source of truth.
type ObjectStore interface {
	// Upload writes data under path with the given content type and
	// optional metadata, overwriting any existing object.
	Upload(ctx context.Context, path string, data []byte, contentType string, metadata map[string]string) (string, error)

	// SignedURL returns a time-limited read URL for path.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	// Exists reports whether an object is stored under path.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the paths stored under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Download reads the object stored under path.
	Download(ctx context.Context, path string) ([]byte, error)
}
