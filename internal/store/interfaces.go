// Package store persists transaction records and monthly running totals in a
// keyed object store.
package store

import (
	"context"
	"errors"
)

// ErrObjectNotExist reports a Get against an absent key. Implementations wrap
// it so callers can tell "missing" apart from other retrieval failures.
var ErrObjectNotExist = errors.New("object does not exist")

// ObjectStore is a key-value blob store keyed by string paths.
type ObjectStore interface {
	// Get fetches the object bytes. An absent key reports ErrObjectNotExist.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put writes the object bytes with the given content type.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
}
