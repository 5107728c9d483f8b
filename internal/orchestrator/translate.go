package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/prompt"
	"goflare.io/glossa/internal/provider"
	"goflare.io/glossa/internal/utils"
)

// Translate runs text through validation, the cache, the active provider
// with retries and, when that provider is exhausted, the failover list.
func (o *Orchestrator) Translate(ctx context.Context, text string, opts models.Options) (*models.Result, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Translate")
	defer span.End()

	res, err := o.translate(ctx, span, text, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (o *Orchestrator) translate(ctx context.Context, span trace.Span, text string, opts models.Options) (*models.Result, error) {
	if err := validate(text); err != nil {
		return nil, err
	}

	sess := o.snapshot()
	if sess.settings.KeyFor(sess.active.String()) == "" {
		return nil, &models.ConfigError{Provider: sess.active.String(), Err: models.ErrMissingAPIKey}
	}

	processed := preprocess(text)
	target := firstNonEmpty(opts.TargetLanguage, sess.settings.TargetLanguage, models.DefaultTargetLanguage)
	category := opts.PromptCategory
	if category == "" {
		category = o.selector.Detect(processed, opts.Context)
	}
	useCache := !opts.DisableCache

	span.SetAttributes(
		attribute.String("provider", sess.active.String()),
		attribute.String("category", category),
		attribute.String("target", target),
	)

	if useCache && !opts.ForceRefresh {
		if hit := o.cache.Get(ctx, processed, target, category); hit != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			o.cacheHits.Inc()
			o.recordUsage(ctx, processed, true)
			return hit, nil
		}
	}

	req := provider.Request{Text: processed, Category: category, Context: opts.Context}

	var res *models.Result
	primaryErr := o.retrier.Run(ctx, func() error {
		var err error
		res, err = o.attempt(ctx, sess.adapters[sess.active], req)
		return err
	})

	if primaryErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var cfgErr *models.ConfigError
		if errors.As(primaryErr, &cfgErr) {
			return nil, primaryErr
		}

		o.logger.Warn("Primary provider exhausted, trying failover",
			zap.String("provider", sess.active.String()), zap.Error(primaryErr))

		res = o.failover(ctx, sess, req)
		if res == nil {
			o.failures.Inc()
			return nil, &models.TotalFailureError{Provider: sess.active.String(), Err: primaryErr}
		}
		span.SetAttributes(attribute.Bool("failover", true), attribute.String("failover_provider", res.Provider))
	}

	o.finish(ctx, res, processed, target, category, opts, useCache)
	return res, nil
}

// attempt performs one provider call and post-processes its output.
func (o *Orchestrator) attempt(ctx context.Context, a provider.Adapter, req provider.Request) (*models.Result, error) {
	res, err := a.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	res.TranslatedText = postprocess(res.TranslatedText)
	if res.TranslatedText == "" {
		return nil, &models.ProviderError{
			Provider: a.Kind().String(),
			Message:  "empty translation result",
			Err:      models.ErrEmptyResponse,
		}
	}
	res.Provider = a.Kind().String()
	return res, nil
}

// failover tries every other provider with a credential once, in priority
// order. The active provider is never changed.
func (o *Orchestrator) failover(ctx context.Context, sess session, req provider.Request) *models.Result {
	for _, k := range provider.FailoverOrder {
		if k == sess.active || sess.settings.KeyFor(k.String()) == "" {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		o.logger.Info("Failing over", zap.String("from", sess.active.String()), zap.String("to", k.String()))
		res, err := o.attempt(ctx, sess.adapters[k], req)
		if err != nil {
			o.logger.Warn("Failover provider failed", zap.String("provider", k.String()), zap.Error(err))
			continue
		}

		res.IsFailover = true
		res.OriginalProvider = sess.active.String()
		o.failovers.Inc()
		o.logger.Info("Failover succeeded", zap.String("provider", k.String()))
		return res
	}
	return nil
}

// finish fills in the detected language, writes the cache and usage stats.
// Failures here are logged and never returned.
func (o *Orchestrator) finish(ctx context.Context, res *models.Result, processed, target, category string, opts models.Options, useCache bool) {
	res.OriginalText = processed
	if res.Timestamp.IsZero() {
		res.Timestamp = o.cfg.Clock()
	}

	switch source := opts.SourceLanguage; {
	case source != "" && source != models.DefaultSourceLanguage:
		res.DetectedLanguage = source
	case o.detector != nil:
		if code, confidence, ok := o.detector.Detect(processed); ok {
			res.DetectedLanguage = code
			res.Confidence = confidence
		}
	}

	if useCache {
		ok := o.cache.Set(ctx, processed, res.TranslatedText, target, category, models.EntryMetadata{
			DetectedLanguage: res.DetectedLanguage,
			Confidence:       res.Confidence,
		})
		if !ok {
			o.logger.Warn("Translation was not cached", zap.String("provider", res.Provider))
		}
	}

	o.translations.Inc()
	o.recordUsage(ctx, processed, false)
}

func (o *Orchestrator) recordUsage(ctx context.Context, text string, fromCache bool) {
	if err := o.usage.RecordTranslation(ctx, utils.RuneLen(text), fromCache); err != nil {
		o.logger.Warn("Failed to update usage stats", zap.Error(err))
	}
}

// TestConnection translates a fixed probe through providerName with apiKey.
// Empty arguments fall back to the active provider and its stored key.
// The cache and usage stats are not touched.
func (o *Orchestrator) TestConnection(ctx context.Context, providerName, apiKey string) models.ConnectionResult {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.TestConnection")
	defer span.End()

	sess := o.snapshot()
	if providerName == "" {
		providerName = sess.active.String()
	}
	out := models.ConnectionResult{Provider: providerName}

	fail := func(err error) models.ConnectionResult {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		out.Error = err.Error()
		out.Message = "connection failed: " + err.Error()
		return out
	}

	kind, err := provider.ParseKind(providerName)
	if err != nil {
		return fail(err)
	}
	if apiKey == "" {
		apiKey = sess.settings.KeyFor(kind.String())
	}

	a, err := provider.New(kind, apiKey, o.selector, o.cfg)
	if err != nil {
		return fail(err)
	}

	start := o.cfg.Clock()
	res, err := o.attempt(ctx, a, provider.Request{Text: probeText, Category: prompt.General})
	if err != nil {
		return fail(err)
	}

	out.Success = true
	out.ResponseTime = o.cfg.Clock().Sub(start)
	out.TranslatedText = res.TranslatedText
	out.Message = "connected, response time: " + out.ResponseTime.Round(time.Millisecond).String()
	return out
}

const probeText = "Hello, world!"

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
