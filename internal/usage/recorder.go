// Package usage records per-day and total usage counters in the store.
package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/store"
	"goflare.io/glossa/internal/utils"
	"goflare.io/glossa/pkg/serialization"
)

// Recorder updates the usage and image stats blobs.
type Recorder struct {
	store  store.Store
	codec  serialization.Codec
	clock  func() time.Time
	logger *zap.Logger
	mu     sync.Mutex
}

// NewRecorder creates a Recorder.
func NewRecorder(st store.Store, codec serialization.Codec, clock func() time.Time, logger *zap.Logger) *Recorder {
	return &Recorder{store: st, codec: codec, clock: clock, logger: logger}
}

// RecordTranslation counts one translation of chars characters. Cache hits
// count as a hit instead of an API call.
func (r *Recorder) RecordTranslation(ctx context.Context, chars int, fromCache bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, err := r.loadUsage(ctx)
	if err != nil {
		return err
	}

	now := r.clock()
	day := utils.DayKey(now)
	daily, ok := stats.Daily[day]
	if !ok {
		daily = &models.UsageCounters{}
		stats.Daily[day] = daily
	}
	if stats.Total.FirstUseDate.IsZero() {
		stats.Total.FirstUseDate = now
	}

	if fromCache {
		daily.CacheHits++
		stats.Total.CacheHits++
	} else {
		daily.APICalls++
		stats.Total.APICalls++
	}
	daily.CharactersTranslated += int64(chars)
	stats.Total.CharactersTranslated += int64(chars)

	return r.save(ctx, store.KeyUsageStats, stats)
}

// RecordImage counts one image translation.
func (r *Recorder) RecordImage(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, err := r.loadImages(ctx)
	if err != nil {
		return err
	}
	stats.Daily[utils.DayKey(r.clock())]++
	stats.Total++
	return r.save(ctx, store.KeyImageStats, stats)
}

// Usage returns the usage stats blob.
func (r *Recorder) Usage(ctx context.Context) (*models.UsageStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUsage(ctx)
}

// Images returns the image stats blob.
func (r *Recorder) Images(ctx context.Context) (*models.ImageStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadImages(ctx)
}

func (r *Recorder) loadUsage(ctx context.Context) (*models.UsageStats, error) {
	stats := &models.UsageStats{}
	if err := r.load(ctx, store.KeyUsageStats, stats); err != nil {
		return nil, err
	}
	if stats.Daily == nil {
		stats.Daily = map[string]*models.UsageCounters{}
	}
	return stats, nil
}

func (r *Recorder) loadImages(ctx context.Context) (*models.ImageStats, error) {
	stats := &models.ImageStats{}
	if err := r.load(ctx, store.KeyImageStats, stats); err != nil {
		return nil, err
	}
	if stats.Daily == nil {
		stats.Daily = map[string]int64{}
	}
	return stats, nil
}

func (r *Recorder) load(ctx context.Context, key string, v any) error {
	blobs, err := r.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	raw, ok := blobs[key]
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := r.codec.Unmarshal(raw, v); err != nil {
		r.logger.Warn("Discarding unreadable stats", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (r *Recorder) save(ctx context.Context, key string, v any) error {
	raw, err := r.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, map[string][]byte{key: raw}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
