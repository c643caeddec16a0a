// Package blob abstracts file-content storage behind a small Store
// interface with S3-compatible and local-directory implementations.
package blob

import (
	"context"
	"io"
)

// Store maps opaque storage keys to file content.
//
// Get returns common.ErrorNotFound when no content exists for the key, so
// callers can distinguish missing content from infrastructure failures.
type Store interface {
	// Put writes the content read from r under key, overwriting nothing:
	// keys are generated to be globally unique before the call.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get opens the content stored under key for reading. The caller must
	// close the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content stored under key. Deleting an absent key
	// is not an error.
	Delete(ctx context.Context, key string) error
}
