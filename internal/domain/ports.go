package domain

import (
	"context"
	"time"
)

// ObjectInfo describes one stored object as returned by a listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the consumed object-storage gateway.
// Implemented by objstore.S3Store.
//
// Operations on a missing key return *ObjectNotFoundError; transient
// store or network faults surface as *StoreUnavailableError and are not
// retried here — retry policy belongs to the caller.
type ObjectStore interface {
	// List returns every object under prefix, fully materialized.
	// When recursive is false the listing stops at the next "/" level.
	List(ctx context.Context, prefix string, recursive bool) ([]ObjectInfo, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte, metadata map[string]string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// LastModified returns nil (and no error) when the key is absent.
	LastModified(ctx context.Context, key string) (*time.Time, error)
	// PresignGet returns a time-limited, credential-embedded URL for one
	// object. Required because keys containing "=" from Hive partitioning
	// do not round-trip through the engine's native URL parsing.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ViewAttacher produces queryable views for logical tables.
// Implemented by engine.Attacher.
type ViewAttacher interface {
	Attach(ctx context.Context, ref TableRef) (*AttachmentOutcome, error)
	AttachPartitions(ctx context.Context, ref TableRef, parts PartitionKey) (*AttachmentOutcome, error)
}
