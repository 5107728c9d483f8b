// Package settings loads, patches and persists the user settings.
package settings

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/store"
	"goflare.io/glossa/pkg/serialization"
)

// Defaults returns the settings of a fresh install.
func Defaults() models.Settings {
	return models.Settings{
		APIProvider:        "deepseek",
		TargetLanguage:     models.DefaultTargetLanguage,
		AutoTranslate:      true,
		PositionPreference: "right",
		FontSize:           14,
		Transparency:       0.8,
		Shortcuts: models.Shortcuts{
			Toggle:   "Alt+T",
			Settings: "Alt+S",
		},
	}
}

// NormalizeTransparency converts a percentage (> 1) to a fraction and clamps
// the result to [0, 1].
func NormalizeTransparency(v float64) float64 {
	if v > 1 {
		v /= 100
	}
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Apply merges p into s. The patch's provider keys are merged key by key;
// an empty key removes the entry.
func Apply(s models.Settings, p models.SettingsPatch) models.Settings {
	if p.APIKey != nil {
		s.APIKey = *p.APIKey
	}
	if p.ProviderKeys != nil {
		merged := make(map[string]string, len(s.ProviderKeys)+len(p.ProviderKeys))
		for k, v := range s.ProviderKeys {
			merged[k] = v
		}
		for k, v := range p.ProviderKeys {
			if v == "" {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		s.ProviderKeys = merged
	}
	if p.APIProvider != nil {
		s.APIProvider = *p.APIProvider
	}
	if p.TargetLanguage != nil {
		s.TargetLanguage = *p.TargetLanguage
	}
	if p.AutoTranslate != nil {
		s.AutoTranslate = *p.AutoTranslate
	}
	if p.PositionPreference != nil {
		s.PositionPreference = *p.PositionPreference
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.Transparency != nil {
		s.Transparency = NormalizeTransparency(*p.Transparency)
	}
	if p.Shortcuts != nil {
		s.Shortcuts = *p.Shortcuts
	}
	return s
}

// Repository persists settings in the store.
type Repository struct {
	store  store.Store
	codec  serialization.Codec
	logger *zap.Logger
	mu     sync.Mutex
}

// NewRepository creates a Repository.
func NewRepository(st store.Store, codec serialization.Codec, logger *zap.Logger) *Repository {
	return &Repository{store: st, codec: codec, logger: logger}
}

// Load returns the stored settings with defaults filled in. Missing or
// unreadable settings yield the defaults.
func (r *Repository) Load(ctx context.Context) (models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	blobs, err := r.store.Get(ctx, store.KeySettings)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	raw, ok := blobs[store.KeySettings]
	if !ok || len(raw) == 0 {
		return Defaults(), nil
	}

	var s models.Settings
	if err := r.codec.Unmarshal(raw, &s); err != nil {
		r.logger.Warn("Discarding unreadable settings", zap.Error(err))
		return Defaults(), nil
	}
	return fillDefaults(s), nil
}

// Save writes s.
func (r *Repository) Save(ctx context.Context, s models.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.Transparency = NormalizeTransparency(s.Transparency)
	raw, err := r.codec.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := r.store.Set(ctx, map[string][]byte{store.KeySettings: raw}); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func fillDefaults(s models.Settings) models.Settings {
	d := Defaults()
	if s.APIProvider == "" {
		s.APIProvider = d.APIProvider
	}
	if s.TargetLanguage == "" {
		s.TargetLanguage = d.TargetLanguage
	}
	if s.PositionPreference == "" {
		s.PositionPreference = d.PositionPreference
	}
	if s.FontSize == 0 {
		s.FontSize = d.FontSize
	}
	if s.Shortcuts.Toggle == "" {
		s.Shortcuts.Toggle = d.Shortcuts.Toggle
	}
	if s.Shortcuts.Settings == "" {
		s.Shortcuts.Settings = d.Shortcuts.Settings
	}
	s.Transparency = NormalizeTransparency(s.Transparency)
	return s
}
