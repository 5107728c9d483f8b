// Package orchestrator ties prompt selection, caching, retries and failover
// into a single translation pipeline.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/cache"
	"goflare.io/glossa/internal/config"
	"goflare.io/glossa/internal/langdetect"
	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/ocr"
	"goflare.io/glossa/internal/prompt"
	"goflare.io/glossa/internal/provider"
	"goflare.io/glossa/internal/retrier"
	"goflare.io/glossa/internal/settings"
	"goflare.io/glossa/internal/store"
	"goflare.io/glossa/internal/usage"
)

// Orchestrator owns the session state: settings, the active provider and
// one adapter per backend.
type Orchestrator struct {
	cfg      *config.Config
	cache    *cache.TranslationCache
	selector *prompt.Selector
	settings *settings.Repository
	usage    *usage.Recorder
	retrier  *retrier.Retrier
	detector langdetect.Detector
	ocr      ocr.Extractor
	logger   *zap.Logger
	tracer   trace.Tracer

	mu       sync.RWMutex
	current  models.Settings
	active   provider.Kind
	adapters map[provider.Kind]provider.Adapter

	initialized  *atomic.Bool
	translations *atomic.Int64
	cacheHits    *atomic.Int64
	failovers    *atomic.Int64
	failures     *atomic.Int64
}

// Status is the snapshot reported to the UI.
type Status struct {
	IsInitialized      bool             `json:"isInitialized"`
	CurrentProvider    string           `json:"currentProvider"`
	HasAPIKey          bool             `json:"hasApiKey"`
	AvailableProviders []string         `json:"availableProviders"`
	Settings           models.Settings  `json:"settings"`
	Adapters           []provider.Stats `json:"adapters"`
	Session            SessionStats     `json:"session"`
}

// SessionStats count what happened since the orchestrator started.
type SessionStats struct {
	Translations int64 `json:"translations"`
	CacheHits    int64 `json:"cacheHits"`
	Failovers    int64 `json:"failovers"`
	Failures     int64 `json:"failures"`
}

// UsageSnapshot groups the persisted usage data with the cache report.
type UsageSnapshot struct {
	Usage  *models.UsageStats `json:"usage"`
	Images *models.ImageStats `json:"images"`
	Cache  models.UsageReport `json:"cache"`
}

// New loads the settings from st and builds the pipeline.
func New(ctx context.Context, st store.Store, cfg *config.Config) (*Orchestrator, error) {
	tc, err := cache.New(ctx, st, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize translation cache: %w", err)
	}

	r, err := retrier.NewRetrier(cfg.Retry.MaxAttempts, cfg.Retry.Delay, 0, 1, 0, retrier.LinearBackoff, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrier: %w", err)
	}

	strategy := prompt.AlwaysGeneral
	if cfg.PromptDetection {
		strategy = prompt.KeywordScoring
	}

	o := &Orchestrator{
		cfg:          cfg,
		cache:        tc,
		selector:     prompt.NewSelector(strategy),
		settings:     settings.NewRepository(st, cfg.Serialization.Codec, cfg.Logger),
		usage:        usage.NewRecorder(st, cfg.Serialization.Codec, cfg.Clock, cfg.Logger),
		retrier:      r,
		ocr:          cfg.OCR,
		logger:       cfg.Logger,
		tracer:       otel.Tracer("glossa/orchestrator"),
		initialized:  atomic.NewBool(false),
		translations: atomic.NewInt64(0),
		cacheHits:    atomic.NewInt64(0),
		failovers:    atomic.NewInt64(0),
		failures:     atomic.NewInt64(0),
	}
	if cfg.LanguageDetection {
		o.detector = langdetect.NewLingua()
	}
	r.OnRetry = func(attempt int, delay time.Duration, err error) {
		o.logger.Warn("Translation attempt failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
	}

	current, err := o.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.apply(current); err != nil {
		o.logger.Warn("Stored provider is unknown, falling back to deepseek",
			zap.String("provider", current.APIProvider), zap.Error(err))
		current.APIProvider = provider.DeepSeek.String()
		if err := o.apply(current); err != nil {
			return nil, err
		}
	}

	o.initialized.Store(true)
	return o, nil
}

// apply installs s as the current settings and rebuilds the adapters.
// The caller holds mu or has exclusive access.
func (o *Orchestrator) apply(s models.Settings) error {
	active, err := provider.ParseKind(s.APIProvider)
	if err != nil {
		return err
	}

	adapters := make(map[provider.Kind]provider.Adapter, len(provider.FailoverOrder))
	for _, k := range provider.FailoverOrder {
		a, err := provider.New(k, s.KeyFor(k.String()), o.selector, o.cfg)
		if err != nil {
			return err
		}
		adapters[k] = a
	}

	o.current = s
	o.active = active
	o.adapters = adapters
	return nil
}

// Selector exposes the prompt templates for customization.
func (o *Orchestrator) Selector() *prompt.Selector { return o.selector }

// Settings returns the current settings with credentials masked.
func (o *Orchestrator) Settings() models.Settings {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current.Masked()
}

// UpdateSettings merges patch into the settings, persists them and
// re-selects the provider. An unknown provider leaves everything unchanged.
func (o *Orchestrator) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	next := settings.Apply(o.current, patch)
	if _, err := provider.ParseKind(next.APIProvider); err != nil {
		return models.Settings{}, err
	}
	if err := o.settings.Save(ctx, next); err != nil {
		return models.Settings{}, err
	}
	if err := o.apply(next); err != nil {
		return models.Settings{}, err
	}

	o.logger.Info("Settings updated", zap.String("provider", next.APIProvider))
	return next.Masked(), nil
}

// Status reports the session state.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stats := make([]provider.Stats, 0, len(o.adapters))
	for _, k := range provider.FailoverOrder {
		if a, ok := o.adapters[k]; ok {
			stats = append(stats, a.Stats())
		}
	}

	return Status{
		IsInitialized:      o.initialized.Load(),
		CurrentProvider:    o.active.String(),
		HasAPIKey:          o.current.KeyFor(o.active.String()) != "",
		AvailableProviders: provider.Names(),
		Settings:           o.current.Masked(),
		Adapters:           stats,
		Session: SessionStats{
			Translations: o.translations.Load(),
			CacheHits:    o.cacheHits.Load(),
			Failovers:    o.failovers.Load(),
			Failures:     o.failures.Load(),
		},
	}
}

// ClearCache removes every cached translation.
func (o *Orchestrator) ClearCache(ctx context.Context) error {
	if err := o.cache.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	o.logger.Info("Translation cache cleared")
	return nil
}

// CleanupCache evicts expired and low scored entries.
func (o *Orchestrator) CleanupCache(ctx context.Context) error {
	return o.cache.Cleanup(ctx)
}

// CacheReport summarizes the cache.
func (o *Orchestrator) CacheReport(ctx context.Context) (models.UsageReport, error) {
	return o.cache.UsageReport(ctx)
}

// UsageStats returns the usage and image stats together with the cache report.
func (o *Orchestrator) UsageStats(ctx context.Context) (UsageSnapshot, error) {
	u, err := o.usage.Usage(ctx)
	if err != nil {
		return UsageSnapshot{}, err
	}
	img, err := o.usage.Images(ctx)
	if err != nil {
		return UsageSnapshot{}, err
	}
	report, err := o.cache.UsageReport(ctx)
	if err != nil {
		return UsageSnapshot{}, err
	}
	return UsageSnapshot{Usage: u, Images: img, Cache: report}, nil
}

type session struct {
	settings models.Settings
	active   provider.Kind
	adapters map[provider.Kind]provider.Adapter
}

func (o *Orchestrator) snapshot() session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return session{settings: o.current, active: o.active, adapters: o.adapters}
}
