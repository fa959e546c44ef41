package providers

import (
	"context"
	"io"
)

// ObjectStore is the opaque blob store holding uploaded audio and rendered
// reports. Keys are slash-separated paths within a bucket.
type ObjectStore interface {
	// Exists reports whether the object is still present. The dispatcher
	// uses this as its idempotence guard before doing any work.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// Download copies the object to a local file path
	Download(ctx context.Context, bucket, key, localPath string) error

	// Put writes an object from the reader
	Put(ctx context.Context, bucket, key string, body io.Reader) error

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error
}
