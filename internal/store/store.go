package store

import (
	"context"
	"errors"
)

// Blob keys written by the core. Each holds one whole serialized value.
const (
	KeyCache      = "translation_cache"
	KeyCacheStats = "cache_stats"
	KeySettings   = "settings"
	KeyUsageStats = "usage_stats"
	KeyImageStats = "image_stats"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("store is closed")

// Store is a key-value store of whole blobs. Get omits keys that are absent.
// Writes are last-write-wins.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, items map[string][]byte) error
	Close() error
}
