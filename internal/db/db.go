// Package db defines the key-value storage contract used by the embedding
// cache. The in-memory indexes are the system of record; the store only holds
// cached vectors, so the surface is deliberately small.
package db

import (
	"context"
	"time"
)

// Store combines the KV operations with lifecycle management.
type Store interface {
	KVStore
	Pinger
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations. Writes always carry a TTL:
// the store only ever holds cache entries.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
