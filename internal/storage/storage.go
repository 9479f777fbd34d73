package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored dataset artifact. ContentType is populated
// by Stat and Put; Get callers infer the format from the key instead.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

type PutOptions struct {
	ContentType string
}

// ObjectStore is the capability surface dataset code depends on. Objects are
// immutable once written: the API fetches them, the demo tool uploads them,
// and snapshot keys are date-partitioned so uploads never collide. Deletion
// is an operator concern and deliberately not part of this boundary.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}
