// Package cache implements the persistent translation cache.
package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/config"
	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/store"
	"goflare.io/glossa/internal/utils"
	"goflare.io/glossa/pkg/serialization"
)

type entries map[string]*models.Entry

// TranslationCache maps (text, target language, prompt category) to a
// previous translation. Entries expire after the TTL and are evicted by
// score once the cache reaches capacity. All state lives in the store; the
// mutex serializes the read-modify-write cycles of this process.
type TranslationCache struct {
	store    store.Store
	codec    serialization.Codec
	logger   *zap.Logger
	tracer   trace.Tracer
	clock    func() time.Time
	capacity int
	keep     int
	ttl      time.Duration

	mu     sync.Mutex
	filter *keyFilter
}

// New creates a TranslationCache over st and loads its key filter.
func New(ctx context.Context, st store.Store, cfg *config.Config) (*TranslationCache, error) {
	c := &TranslationCache{
		store:    st,
		codec:    cfg.Serialization.Codec,
		logger:   cfg.Logger,
		tracer:   otel.Tracer("glossa/cache"),
		clock:    cfg.Clock,
		capacity: cfg.Cache.Capacity,
		keep:     cfg.KeepCount(),
		ttl:      cfg.Cache.TTL,
		filter:   newKeyFilter(cfg.Cache.BloomFilter),
	}
	if err := c.init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// init marks the stats as initialized and seeds the key filter.
func (c *TranslationCache) init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ents, stats, err := c.load(ctx, true)
	if err != nil {
		return err
	}
	c.filter.Rebuild(keysOf(ents))
	if stats.Initialized {
		return nil
	}
	stats.Initialized = true
	stats.CacheSize = len(ents)
	return c.saveStats(ctx, stats)
}

// Get returns the cached translation or nil on a miss. Expired entries are
// deleted on lookup. Store failures count as a miss.
func (c *TranslationCache) Get(ctx context.Context, text, lang, category string) *models.Result {
	key := Key(text, lang, category)
	ctx, span := c.tracer.Start(ctx, "Cache.Get", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	mayExist := c.filter.Test(key)

	ents, stats, err := c.load(ctx, mayExist)
	if err != nil {
		c.logger.Warn("Failed to read translation cache", zap.String("key", key), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil
	}

	entry, ok := ents[key]
	if !ok {
		stats.TotalMisses++
		c.persistStats(ctx, stats)
		span.SetAttributes(attribute.Bool("hit", false))
		return nil
	}

	if entry.IsExpired(now, c.ttl) {
		delete(ents, key)
		stats.TotalMisses++
		stats.CacheSize = len(ents)
		if err := c.save(ctx, ents, stats); err != nil {
			c.logger.Warn("Failed to delete expired cache entry", zap.String("key", key), zap.Error(err))
		}
		c.filter.Rebuild(keysOf(ents))
		span.SetAttributes(attribute.Bool("hit", false), attribute.Bool("expired", true))
		return nil
	}

	entry.IncrementAccess(now)
	stats.TotalHits++
	if err := c.save(ctx, ents, stats); err != nil {
		c.logger.Warn("Failed to record cache hit", zap.String("key", key), zap.Error(err))
	}
	span.SetAttributes(attribute.Bool("hit", true))
	c.logger.Debug("Translation cache hit", zap.String("key", key), zap.Int64("accessCount", entry.AccessCount))

	return &models.Result{
		TranslatedText:   entry.TranslatedText,
		OriginalText:     entry.OriginalText,
		DetectedLanguage: entry.DetectedLanguage,
		Confidence:       entry.Confidence,
		FromCache:        true,
		Timestamp:        now,
		CachedAt:         entry.CreatedAt,
		AccessCount:      entry.AccessCount,
	}
}

// Set stores a translation and reports whether it was persisted.
// A full cache is cleaned up first.
func (c *TranslationCache) Set(ctx context.Context, text, translated, lang, category string, meta models.EntryMetadata) bool {
	if text == "" || translated == "" {
		return false
	}

	key := Key(text, lang, category)
	ctx, span := c.tracer.Start(ctx, "Cache.Set", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	ents, stats, err := c.load(ctx, true)
	if err != nil {
		c.logger.Warn("Failed to read translation cache", zap.String("key", key), zap.Error(err))
		span.RecordError(err)
		return false
	}

	evicted := false
	if len(ents) >= c.capacity {
		removed := evict(ents, now, c.ttl, c.keep)
		evicted = removed > 0
		stats.LastCleanup = now
		c.logger.Info("Translation cache cleaned up", zap.Int("removed", removed), zap.Int("remaining", len(ents)))
	}

	detected := meta.DetectedLanguage
	if detected == "" {
		detected = defaultDetectedLanguage
	}
	confidence := meta.Confidence
	if confidence == 0 {
		confidence = defaultEntryConfidence
	}

	ents[key] = &models.Entry{
		OriginalText:      utils.Truncate(text, maxOriginalTextLength),
		TranslatedText:    utils.Truncate(translated, maxTranslatedTextLength),
		TargetLanguage:    lang,
		PromptCategory:    category,
		DetectedLanguage:  detected,
		Confidence:        confidence,
		CreatedAt:         now,
		LastAccessedAt:    now,
		AccessCount:       1,
		TextLength:        utils.RuneLen(text),
		TranslationLength: utils.RuneLen(translated),
	}
	stats.TotalSaves++
	stats.CacheSize = len(ents)

	if err := c.save(ctx, ents, stats); err != nil {
		c.logger.Warn("Failed to write translation cache", zap.String("key", key), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false
	}
	if evicted {
		c.filter.Rebuild(keysOf(ents))
	} else {
		c.filter.Add(key)
	}
	return true
}

// Cleanup drops expired entries and keeps at most floor(capacity*keepRatio)
// of the best scored ones.
func (c *TranslationCache) Cleanup(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "Cache.Cleanup")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	ents, stats, err := c.load(ctx, true)
	if err != nil {
		return err
	}

	removed := evict(ents, now, c.ttl, c.keep)
	stats.LastCleanup = now
	stats.CacheSize = len(ents)
	if err := c.save(ctx, ents, stats); err != nil {
		return err
	}
	c.filter.Rebuild(keysOf(ents))

	span.SetAttributes(attribute.Int("removed", removed))
	c.logger.Info("Translation cache cleaned up", zap.Int("removed", removed), zap.Int("remaining", len(ents)))
	return nil
}

// ClearAll removes every entry and resets the statistics.
func (c *TranslationCache) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := &models.CacheStats{Initialized: true, LastCleanup: c.clock()}
	if err := c.save(ctx, entries{}, stats); err != nil {
		return err
	}
	c.filter.Reset()
	return nil
}

// UsageReport summarizes size, hit rate and entry ages.
func (c *TranslationCache) UsageReport(ctx context.Context) (models.UsageReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ents, stats, err := c.load(ctx, true)
	if err != nil {
		return models.UsageReport{}, err
	}

	report := models.UsageReport{
		CacheSize:   len(ents),
		MaxSize:     c.capacity,
		TotalHits:   stats.TotalHits,
		TotalMisses: stats.TotalMisses,
		TotalSaves:  stats.TotalSaves,
		LastCleanup: stats.LastCleanup,
	}
	if lookups := stats.TotalHits + stats.TotalMisses; lookups > 0 {
		report.HitRate = int(math.Round(100 * float64(stats.TotalHits) / float64(lookups)))
	}
	for _, e := range ents {
		if report.OldestEntry.IsZero() || e.CreatedAt.Before(report.OldestEntry) {
			report.OldestEntry = e.CreatedAt
		}
		if e.CreatedAt.After(report.NewestEntry) {
			report.NewestEntry = e.CreatedAt
		}
	}
	return report, nil
}

// Size returns the number of stored entries.
func (c *TranslationCache) Size(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ents, _, err := c.load(ctx, true)
	if err != nil {
		return 0, err
	}
	return len(ents), nil
}

// load reads the stats blob and, when withEntries is set, the entries blob.
func (c *TranslationCache) load(ctx context.Context, withEntries bool) (entries, *models.CacheStats, error) {
	keys := []string{store.KeyCacheStats}
	if withEntries {
		keys = append(keys, store.KeyCache)
	}

	blobs, err := c.store.Get(ctx, keys...)
	if err != nil {
		return nil, nil, &models.CacheError{Op: "read", Err: err}
	}

	ents := entries{}
	if raw, ok := blobs[store.KeyCache]; ok && len(raw) > 0 {
		if err := c.codec.Unmarshal(raw, &ents); err != nil {
			c.logger.Warn("Discarding unreadable translation cache", zap.Error(err))
			ents = entries{}
		}
	}

	stats := &models.CacheStats{}
	if raw, ok := blobs[store.KeyCacheStats]; ok && len(raw) > 0 {
		if err := c.codec.Unmarshal(raw, stats); err != nil {
			c.logger.Warn("Discarding unreadable cache stats", zap.Error(err))
			stats = &models.CacheStats{}
		}
	}
	return ents, stats, nil
}

func (c *TranslationCache) save(ctx context.Context, ents entries, stats *models.CacheStats) error {
	rawEntries, err := c.codec.Marshal(ents)
	if err != nil {
		return &models.CacheError{Op: "encode", Err: err}
	}
	rawStats, err := c.codec.Marshal(stats)
	if err != nil {
		return &models.CacheError{Op: "encode", Err: err}
	}
	if err := c.store.Set(ctx, map[string][]byte{
		store.KeyCache:      rawEntries,
		store.KeyCacheStats: rawStats,
	}); err != nil {
		return &models.CacheError{Op: "write", Err: err}
	}
	return nil
}

func (c *TranslationCache) saveStats(ctx context.Context, stats *models.CacheStats) error {
	raw, err := c.codec.Marshal(stats)
	if err != nil {
		return &models.CacheError{Op: "encode", Err: err}
	}
	if err := c.store.Set(ctx, map[string][]byte{store.KeyCacheStats: raw}); err != nil {
		return &models.CacheError{Op: "write", Err: err}
	}
	return nil
}

func (c *TranslationCache) persistStats(ctx context.Context, stats *models.CacheStats) {
	if err := c.saveStats(ctx, stats); err != nil {
		c.logger.Warn("Failed to write cache stats", zap.Error(err))
	}
}

func keysOf(ents entries) []string {
	keys := make([]string, 0, len(ents))
	for k := range ents {
		keys = append(keys, k)
	}
	return keys
}
