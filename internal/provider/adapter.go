// Package provider implements the HTTP adapters for the translation backends.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"goflare.io/glossa/internal/config"
	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/prompt"
)

const (
	defaultDetectedLanguage = "auto"
	defaultConfidence       = 0.9
)

// Request is one text to translate.
type Request struct {
	Text     string
	Category string
	Context  string
}

// Adapter translates text through one backend.
type Adapter interface {
	Kind() Kind
	Translate(ctx context.Context, req Request) (*models.Result, error)
	Stats() Stats
}

// Stats are the counters of one adapter instance.
type Stats struct {
	Provider     string `json:"provider"`
	Requests     int64  `json:"requests"`
	Failures     int64  `json:"failures"`
	BreakerState string `json:"breakerState"`
}

// HTTPAdapter is the Adapter of every backend; the Kind selects the wire format.
// Calls through one instance are spaced by the backend's minimum delay.
type HTTPAdapter struct {
	kind     Kind
	spec     Spec
	apiKey   string
	selector *prompt.Selector

	client  *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
	logger  *zap.Logger
	clock   func() time.Time

	requests *atomic.Int64
	failures *atomic.Int64
	// lastErr 是斷路器開啟前最後一次真實的請求錯誤
	lastErr *atomic.Error
}

// New creates the adapter for kind using apiKey.
func New(kind Kind, apiKey string, selector *prompt.Selector, cfg *config.Config) (*HTTPAdapter, error) {
	if !kind.Valid() {
		return nil, &models.ConfigError{Provider: kind.String(), Err: models.ErrUnknownProvider}
	}

	spec := kind.Spec()
	if u, ok := cfg.Provider.BaseURLs[kind.String()]; ok && u != "" {
		spec.BaseURL = strings.TrimRight(u, "/")
	}
	if d, ok := cfg.Provider.MinDelays[kind.String()]; ok {
		spec.MinDelay = d
	}

	limit := rate.Inf
	if spec.MinDelay > 0 {
		limit = rate.Every(spec.MinDelay)
	}

	settings := cfg.Provider.CircuitBreaker
	settings.Name = kind.String()

	return &HTTPAdapter{
		kind:     kind,
		spec:     spec,
		apiKey:   strings.TrimSpace(apiKey),
		selector: selector,
		client: resty.New().
			SetTimeout(cfg.Provider.HTTPTimeout).
			SetHeader("Content-Type", "application/json"),
		limiter:  rate.NewLimiter(limit, 1),
		breaker:  gobreaker.NewCircuitBreaker(settings),
		tracer:   otel.Tracer("glossa/provider"),
		logger:   cfg.Logger.With(zap.String("provider", kind.String())),
		clock:    cfg.Clock,
		requests: atomic.NewInt64(0),
		failures: atomic.NewInt64(0),
		lastErr:  atomic.NewError(nil),
	}, nil
}

// Kind returns the backend of the adapter.
func (a *HTTPAdapter) Kind() Kind { return a.kind }

// HasKey reports whether a credential is configured.
func (a *HTTPAdapter) HasKey() bool { return a.apiKey != "" }

// Stats returns a snapshot of the adapter counters.
func (a *HTTPAdapter) Stats() Stats {
	return Stats{
		Provider:     a.kind.String(),
		Requests:     a.requests.Load(),
		Failures:     a.failures.Load(),
		BreakerState: a.breaker.State().String(),
	}
}

// Translate renders the prompt, waits for the rate limiter and performs one
// request. It never retries.
func (a *HTTPAdapter) Translate(ctx context.Context, req Request) (*models.Result, error) {
	if a.apiKey == "" {
		return nil, &models.ConfigError{Provider: a.kind.String(), Err: models.ErrMissingAPIKey}
	}

	ctx, span := a.tracer.Start(ctx, "Provider.Translate", trace.WithAttributes(
		attribute.String("provider", a.kind.String()),
		attribute.String("category", req.Category),
	))
	defer span.End()

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rendered := a.selector.Render(req.Category, map[string]string{
		"source_text":  req.Text,
		"current_text": req.Text,
		"context":      req.Context,
	})

	a.requests.Inc()
	start := a.clock()
	out, err := a.breaker.Execute(func() (interface{}, error) {
		return a.do(ctx, rendered)
	})
	if err != nil {
		a.failures.Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = a.breakerError(err)
		} else {
			a.lastErr.Store(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn("Provider request failed", zap.Error(err), zap.Duration("latency", a.clock().Sub(start)))
		return nil, err
	}

	a.lastErr.Store(nil)
	a.logger.Debug("Provider request succeeded", zap.Duration("latency", a.clock().Sub(start)))
	return &models.Result{
		TranslatedText:   out.(string),
		OriginalText:     req.Text,
		DetectedLanguage: defaultDetectedLanguage,
		Confidence:       defaultConfidence,
		Provider:         a.kind.String(),
		Timestamp:        a.clock(),
	}, nil
}

// breakerError reports a fast failure of the breaker. The status and message
// of the failure that tripped it are kept so callers still see the cause.
func (a *HTTPAdapter) breakerError(err error) *models.ProviderError {
	pErr := &models.ProviderError{Provider: a.kind.String(), Err: err, Permanent: true}

	cause := a.lastErr.Load()
	if cause == nil {
		return pErr
	}
	var last *models.ProviderError
	if errors.As(cause, &last) {
		pErr.Status = last.Status
		pErr.Message = last.Message
	}
	if pErr.Message == "" {
		pErr.Message = cause.Error()
	}
	pErr.Err = fmt.Errorf("%w: %w", err, cause)
	return pErr
}

func (a *HTTPAdapter) do(ctx context.Context, rendered string) (string, error) {
	c := buildCall(a.kind, a.spec, a.apiKey, rendered)

	r := a.client.R().SetContext(ctx).SetBody(c.body)
	if c.bearer {
		r.SetAuthToken(a.apiKey)
	}
	if len(c.query) > 0 {
		r.SetQueryParams(c.query)
	}

	resp, err := r.Post(a.spec.BaseURL + c.path)
	if err != nil {
		return "", &models.ProviderError{Provider: a.kind.String(), Err: err}
	}

	if resp.IsError() {
		msg := extractErrorMessage(a.kind, resp.Body())
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return "", &models.ProviderError{Provider: a.kind.String(), Status: resp.StatusCode(), Message: msg}
	}

	text, detail := extractText(a.kind, resp.Body())
	if text == "" {
		msg := "empty translation result"
		if detail != "" {
			msg += ": " + detail
		}
		return "", &models.ProviderError{
			Provider: a.kind.String(),
			Status:   resp.StatusCode(),
			Message:  msg,
			Err:      models.ErrEmptyResponse,
		}
	}
	return text, nil
}
