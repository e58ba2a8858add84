// Package db declares what run persistence needs from a key-value server.
package db

import (
	"context"
	"time"
)

// Store is the full contract of a run store driver.
type Store interface {
	Pinger
	RecordStore
	BlobStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RecordStore keeps flat string records. Run metadata lives here.
type RecordStore interface {
	// HSetWithTTL replaces the record's fields and sets its expiry.
	// A non-positive ttl keeps the record until deleted.
	HSetWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	// HGetAll returns an empty map for a missing key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// BlobStore keeps opaque values. Packed pair lists live here.
type BlobStore interface {
	// Get returns ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del reports how many of keys existed.
	Del(ctx context.Context, keys ...string) (int64, error)
}
