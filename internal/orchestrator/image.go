package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/prompt"
	"goflare.io/glossa/internal/utils"
)

const (
	imageCategory          = "ocr"
	defaultImageConfidence = 0.8
)

// imageKey addresses an image translation in the cache.
func imageKey(image []byte, target string) string {
	return fmt.Sprintf("ocr_%s_%s", utils.HashString(string(image)), target)
}

// TranslateImage extracts the text of image and translates it.
func (o *Orchestrator) TranslateImage(ctx context.Context, image []byte, opts models.Options) (*models.Result, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.TranslateImage")
	defer span.End()

	res, err := o.translateImage(ctx, image, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (o *Orchestrator) translateImage(ctx context.Context, image []byte, opts models.Options) (*models.Result, error) {
	if len(image) == 0 {
		return nil, &models.ValidationError{Err: models.ErrEmptyImage}
	}

	sess := o.snapshot()
	if sess.settings.KeyFor(sess.active.String()) == "" {
		return nil, &models.ConfigError{Provider: sess.active.String(), Err: models.ErrMissingAPIKey}
	}

	target := firstNonEmpty(opts.TargetLanguage, sess.settings.TargetLanguage, models.DefaultTargetLanguage)
	key := imageKey(image, target)
	useCache := !opts.DisableCache

	if useCache && !opts.ForceRefresh {
		if hit := o.cache.Get(ctx, key, target, imageCategory); hit != nil {
			hit.IsOCR = true
			return hit, nil
		}
	}

	extracted, err := o.ocr.Extract(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from image: %w", err)
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, fmt.Errorf("failed to translate image: %w", models.ErrNoTextInImage)
	}

	tr, err := o.Translate(ctx, extracted.Text, models.Options{
		TargetLanguage: target,
		PromptCategory: prompt.General,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to translate image: %w", err)
	}

	confidence := extracted.Confidence
	if confidence == 0 {
		confidence = defaultImageConfidence
	}

	res := &models.Result{
		TranslatedText:   tr.TranslatedText,
		OriginalText:     extracted.Text,
		DetectedLanguage: tr.DetectedLanguage,
		Confidence:       confidence,
		Provider:         tr.Provider,
		Timestamp:        o.cfg.Clock(),
		IsFailover:       tr.IsFailover,
		OriginalProvider: tr.OriginalProvider,
		IsOCR:            true,
	}

	if useCache {
		o.cache.Set(ctx, key, res.TranslatedText, target, imageCategory, models.EntryMetadata{
			DetectedLanguage: res.DetectedLanguage,
			Confidence:       confidence,
		})
	}
	if err := o.usage.RecordImage(ctx); err != nil {
		o.logger.Warn("Failed to update image stats", zap.Error(err))
	}

	o.logger.Debug("Image translated", zap.String("key", key), zap.Float64("confidence", confidence))
	return res, nil
}
