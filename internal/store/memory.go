package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// MemoryStore keeps blobs in process. Contents are lost on restart.
type MemoryStore struct {
	cache  *ristretto.Cache
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewMemoryStore creates a ristretto backed store. maxCost bounds the total
// size in bytes of the stored blobs.
func NewMemoryStore(numCounters, maxCost, bufferItems int64, logger *zap.Logger) (*MemoryStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Ristretto cache: %w", err)
	}
	return &MemoryStore{cache: c, logger: logger}, nil
}

// Get returns a copy of each stored blob.
func (s *MemoryStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, ok := s.cache.Get(k)
		if !ok {
			continue
		}
		b, ok := v.([]byte)
		if !ok {
			s.logger.Warn("Unexpected value type in memory store", zap.String("key", k))
			continue
		}
		out[k] = append([]byte(nil), b...)
	}
	return out, nil
}

// Set stores every item and waits until the writes are visible.
func (s *MemoryStore) Set(ctx context.Context, items map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	for k, v := range items {
		b := append([]byte(nil), v...)
		cost := int64(len(b))
		if cost == 0 {
			cost = 1
		}
		if !s.cache.Set(k, b, cost) {
			s.logger.Warn("Ristretto Set failed", zap.String("key", k), zap.Int64("cost", cost))
			return fmt.Errorf("failed to store key %s", k)
		}
	}
	s.cache.Wait()
	return nil
}

// Close releases the ristretto cache.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.cache.Close()
	return nil
}
