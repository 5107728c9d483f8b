package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/config"
	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/ocr"
	"goflare.io/glossa/internal/provider"
	"goflare.io/glossa/internal/store"
)

type backend struct {
	kind    provider.Kind
	calls   *atomic.Int64
	status  *atomic.Int64
	reply   *atomic.String
	flakies *atomic.Int64
}

func successBody(kind provider.Kind, text string) string {
	switch kind {
	case provider.Tongyi:
		return fmt.Sprintf(`{"output":{"text":%q}}`, text)
	case provider.Gemini:
		return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
	case provider.Wenxin:
		return fmt.Sprintf(`{"result":%q}`, text)
	default:
		return fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, text)
	}
}

func (b *backend) fail()               { b.status.Store(http.StatusInternalServerError) }
func (b *backend) succeed(text string) { b.status.Store(http.StatusOK); b.reply.Store(text) }

type harness struct {
	o        *Orchestrator
	st       store.Store
	backends map[provider.Kind]*backend
	opts     []config.Option
}

func newHarness(t *testing.T, settingsJSON string, extra ...config.Option) *harness {
	t.Helper()

	st, err := store.NewMemoryStore(1e4, 16<<20, 64, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if settingsJSON != "" {
		require.NoError(t, st.Set(context.Background(), map[string][]byte{store.KeySettings: []byte(settingsJSON)}))
	}

	h := &harness{st: st, backends: map[provider.Kind]*backend{}}
	h.opts = []config.Option{
		config.WithLogger(zap.NewNop()),
		config.WithRetryDelay(time.Millisecond),
	}
	for _, k := range provider.FailoverOrder {
		b := &backend{
			kind:    k,
			calls:   atomic.NewInt64(0),
			status:  atomic.NewInt64(http.StatusOK),
			reply:   atomic.NewString("你好，世界"),
			flakies: atomic.NewInt64(0),
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.calls.Inc()
			w.Header().Set("Content-Type", "application/json")
			status := int(b.status.Load())
			if b.flakies.Dec() >= 0 {
				status = http.StatusServiceUnavailable
			}
			w.WriteHeader(status)
			if status != http.StatusOK {
				_, _ = w.Write([]byte(`{"error":{"message":"boom"},"message":"boom","error_msg":"boom"}`))
				return
			}
			_, _ = w.Write([]byte(successBody(b.kind, b.reply.Load())))
		}))
		t.Cleanup(srv.Close)
		h.backends[k] = b
		h.opts = append(h.opts,
			config.WithProviderBaseURL(k.String(), srv.URL),
			config.WithProviderMinDelay(k.String(), 0),
		)
	}
	h.opts = append(h.opts, extra...)
	h.o = h.open(t)
	return h
}

func (h *harness) open(t *testing.T) *Orchestrator {
	t.Helper()
	cfg, err := config.NewConfig(h.opts...)
	require.NoError(t, err)
	o, err := New(context.Background(), h.st, cfg)
	require.NoError(t, err)
	return o
}

func (h *harness) calls(k provider.Kind) int64 { return h.backends[k].calls.Load() }

const sharedKey = `{"apiKey":"sk-test","apiProvider":"deepseek"}`

func TestTranslate_IdempotentRetranslation(t *testing.T) {
	h := newHarness(t, sharedKey)
	ctx := context.Background()

	first, err := h.o.Translate(ctx, "Hello, world!", models.Options{})
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, "你好，世界", first.TranslatedText)
	assert.Equal(t, "deepseek", first.Provider)
	assert.Equal(t, "Hello, world!", first.OriginalText)

	second, err := h.o.Translate(ctx, "  Hello,   world! ", models.Options{})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.TranslatedText, second.TranslatedText)

	assert.Equal(t, int64(1), h.calls(provider.DeepSeek))

	snap, err := h.o.UsageStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Usage.Total.APICalls)
	assert.Equal(t, int64(1), snap.Usage.Total.CacheHits)
	assert.Equal(t, 50, snap.Cache.HitRate)
}

func TestTranslate_ValidationNeverReachesProvider(t *testing.T) {
	h := newHarness(t, sharedKey)

	for _, text := range []string{"", "a", "12345", "...", strings.Repeat("a", 5001)} {
		_, err := h.o.Translate(context.Background(), text, models.Options{})
		var vErr *models.ValidationError
		assert.ErrorAs(t, err, &vErr, "text %q", text)
	}
	assert.Zero(t, h.calls(provider.DeepSeek))
}

func TestTranslate_MissingKey(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.o.Translate(context.Background(), "Hello there", models.Options{})
	var cfgErr *models.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, models.ErrMissingAPIKey)
	assert.Zero(t, h.calls(provider.DeepSeek))
}

func TestTranslate_PostprocessesOutput(t *testing.T) {
	h := newHarness(t, sharedKey)
	h.backends[provider.DeepSeek].succeed("\"你好\"\n\n\n世界")

	res, err := h.o.Translate(context.Background(), "Hello world", models.Options{})
	require.NoError(t, err)
	assert.Equal(t, "你好\"\n世界", res.TranslatedText)
}

func TestTranslate_RetriesThenSucceeds(t *testing.T) {
	h := newHarness(t, sharedKey)
	b := h.backends[provider.DeepSeek]
	b.flakies.Store(2)
	b.succeed("好")

	res, err := h.o.Translate(context.Background(), "Good morning", models.Options{})
	require.NoError(t, err)
	assert.Equal(t, "好", res.TranslatedText)
	assert.False(t, res.IsFailover)
	assert.Equal(t, int64(3), h.calls(provider.DeepSeek))
	assert.Zero(t, h.calls(provider.Tongyi))
}

func TestTranslate_Failover(t *testing.T) {
	h := newHarness(t, sharedKey)
	h.backends[provider.DeepSeek].fail()
	h.backends[provider.Tongyi].succeed("备用")

	res, err := h.o.Translate(context.Background(), "Hello failover", models.Options{})
	require.NoError(t, err)
	assert.True(t, res.IsFailover)
	assert.Equal(t, "deepseek", res.OriginalProvider)
	assert.Equal(t, "tongyi", res.Provider)
	assert.Equal(t, "备用", res.TranslatedText)

	assert.Equal(t, int64(3), h.calls(provider.DeepSeek))
	assert.Equal(t, int64(1), h.calls(provider.Tongyi))
	assert.Zero(t, h.calls(provider.Wenxin))

	status := h.o.Status()
	assert.Equal(t, "deepseek", status.CurrentProvider)
	assert.Equal(t, int64(1), status.Session.Failovers)

	cached, err := h.o.Translate(context.Background(), "Hello failover", models.Options{})
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Equal(t, "备用", cached.TranslatedText)
}

func TestTranslate_FailoverOnlyVisitsProvidersWithKeys(t *testing.T) {
	h := newHarness(t, `{"apiProvider":"deepseek","providerKeys":{"deepseek":"sk-d","gemini":"sk-g"}}`)
	h.backends[provider.DeepSeek].fail()
	h.backends[provider.Gemini].succeed("双子")

	res, err := h.o.Translate(context.Background(), "Hello gemini", models.Options{})
	require.NoError(t, err)
	assert.Equal(t, "gemini", res.Provider)
	assert.True(t, res.IsFailover)

	for _, k := range []provider.Kind{provider.Tongyi, provider.Wenxin, provider.OpenAI} {
		assert.Zero(t, h.calls(k), k.String())
	}
}

func TestTranslate_TotalFailure(t *testing.T) {
	h := newHarness(t, sharedKey)
	for _, b := range h.backends {
		b.fail()
	}

	_, err := h.o.Translate(context.Background(), "Nobody answers", models.Options{})
	var total *models.TotalFailureError
	require.ErrorAs(t, err, &total)
	assert.Equal(t, "deepseek", total.Provider)

	var pErr *models.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "deepseek", pErr.Provider)
	assert.Equal(t, http.StatusInternalServerError, pErr.Status)

	for _, k := range provider.FailoverOrder {
		assert.NotZero(t, h.calls(k), k.String())
	}
	assert.Equal(t, int64(1), h.o.Status().Session.Failures)

	report, err := h.o.CacheReport(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.TotalSaves)
}

func TestTranslate_TotalFailureKeepsCauseBehindOpenBreaker(t *testing.T) {
	h := newHarness(t, sharedKey, config.WithCircuitBreaker(gobreaker.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 1
		},
	}))
	for _, b := range h.backends {
		b.fail()
	}

	_, err := h.o.Translate(context.Background(), "Breaker trips early", models.Options{})
	var total *models.TotalFailureError
	require.ErrorAs(t, err, &total)
	assert.Equal(t, "deepseek", total.Provider)

	var pErr *models.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, http.StatusInternalServerError, pErr.Status)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, int64(1), h.calls(provider.DeepSeek))
}

func TestTranslate_CacheFlags(t *testing.T) {
	h := newHarness(t, sharedKey)
	ctx := context.Background()

	_, err := h.o.Translate(ctx, "Cache me", models.Options{DisableCache: true})
	require.NoError(t, err)
	_, err = h.o.Translate(ctx, "Cache me", models.Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.calls(provider.DeepSeek))

	res, err := h.o.Translate(ctx, "Cache me", models.Options{ForceRefresh: true})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, int64(3), h.calls(provider.DeepSeek))

	res, err = h.o.Translate(ctx, "Cache me", models.Options{})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, int64(3), h.calls(provider.DeepSeek))
}

func TestTranslate_CategoryAndSource(t *testing.T) {
	h := newHarness(t, sharedKey, config.WithPromptDetection(true))
	ctx := context.Background()

	res, err := h.o.Translate(ctx, "Install the library and configure the server", models.Options{SourceLanguage: "en"})
	require.NoError(t, err)
	assert.Equal(t, "en", res.DetectedLanguage)

	hit, err := h.o.Translate(ctx, "Install the library and configure the server", models.Options{PromptCategory: "technical"})
	require.NoError(t, err)
	assert.True(t, hit.FromCache)

	miss, err := h.o.Translate(ctx, "Install the library and configure the server", models.Options{PromptCategory: "general"})
	require.NoError(t, err)
	assert.False(t, miss.FromCache)
}

func TestTranslate_CanceledContext(t *testing.T) {
	h := newHarness(t, sharedKey)
	h.backends[provider.DeepSeek].fail()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.o.Translate(ctx, "Too late", models.Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.calls(provider.Tongyi))
}

func TestUpdateSettings(t *testing.T) {
	h := newHarness(t, sharedKey)
	ctx := context.Background()

	unknown := "claude"
	_, err := h.o.UpdateSettings(ctx, models.SettingsPatch{APIProvider: &unknown})
	assert.ErrorIs(t, err, models.ErrUnknownProvider)
	assert.Equal(t, "deepseek", h.o.Status().CurrentProvider)

	openai := "openai"
	transparency := 80.0
	updated, err := h.o.UpdateSettings(ctx, models.SettingsPatch{APIProvider: &openai, Transparency: &transparency})
	require.NoError(t, err)
	assert.Equal(t, "openai", updated.APIProvider)
	assert.Equal(t, 0.8, updated.Transparency)
	assert.Equal(t, "***", updated.APIKey)

	res, err := h.o.Translate(ctx, "Switch provider", models.Options{})
	require.NoError(t, err)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, int64(1), h.calls(provider.OpenAI))

	reopened := h.open(t)
	assert.Equal(t, "openai", reopened.Status().CurrentProvider)
	assert.Equal(t, 0.8, reopened.Settings().Transparency)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, sharedKey)
	s := h.o.Status()

	assert.True(t, s.IsInitialized)
	assert.Equal(t, "deepseek", s.CurrentProvider)
	assert.True(t, s.HasAPIKey)
	assert.Equal(t, []string{"deepseek", "tongyi", "wenxin", "openai", "gemini"}, s.AvailableProviders)
	assert.Equal(t, "***", s.Settings.APIKey)
	assert.Len(t, s.Adapters, 5)

	empty := newHarness(t, "")
	assert.False(t, empty.o.Status().HasAPIKey)
	assert.Equal(t, "", empty.o.Status().Settings.APIKey)
}

func TestTestConnection(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	res := h.o.TestConnection(ctx, "tongyi", "sk-probe")
	assert.True(t, res.Success)
	assert.Equal(t, "tongyi", res.Provider)
	assert.Equal(t, "你好，世界", res.TranslatedText)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, int64(1), h.calls(provider.Tongyi))

	snap, err := h.o.UsageStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, snap.Usage.Total.APICalls)
	assert.Zero(t, snap.Cache.TotalSaves)

	missing := h.o.TestConnection(ctx, "deepseek", "")
	assert.False(t, missing.Success)
	assert.Contains(t, missing.Error, "api key")

	unknown := h.o.TestConnection(ctx, "claude", "sk")
	assert.False(t, unknown.Success)

	h.backends[provider.Wenxin].fail()
	failed := h.o.TestConnection(ctx, "wenxin", "sk")
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "boom")
}

func TestTranslateImage(t *testing.T) {
	h := newHarness(t, sharedKey, config.WithOCR(ocr.NewStub(ocr.WithText("Hello there"))))
	ctx := context.Background()
	img := []byte("fake-png-bytes")

	res, err := h.o.TranslateImage(ctx, img, models.Options{})
	require.NoError(t, err)
	assert.True(t, res.IsOCR)
	assert.Equal(t, "Hello there", res.OriginalText)
	assert.Equal(t, "你好，世界", res.TranslatedText)
	assert.Equal(t, 0.85, res.Confidence)

	again, err := h.o.TranslateImage(ctx, img, models.Options{})
	require.NoError(t, err)
	assert.True(t, again.FromCache)
	assert.True(t, again.IsOCR)
	assert.Equal(t, int64(1), h.calls(provider.DeepSeek))

	snap, err := h.o.UsageStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Images.Total)

	_, err = h.o.TranslateImage(ctx, nil, models.Options{})
	assert.ErrorIs(t, err, models.ErrEmptyImage)
}

func TestTranslateImage_NoText(t *testing.T) {
	h := newHarness(t, sharedKey, config.WithOCR(ocr.NewStub(ocr.WithText("   "))))

	_, err := h.o.TranslateImage(context.Background(), []byte("img"), models.Options{})
	assert.ErrorIs(t, err, models.ErrNoTextInImage)
	assert.Zero(t, h.calls(provider.DeepSeek))
}

func TestTranslateBatch(t *testing.T) {
	h := newHarness(t, sharedKey, config.WithBatchConcurrency(2))

	out := h.o.TranslateBatch(context.Background(), []string{"First sentence", "1", "Third sentence"}, models.Options{})
	require.Len(t, out, 3)

	assert.NoError(t, out[0].Err)
	assert.Equal(t, "First sentence", out[0].Result.OriginalText)

	var vErr *models.ValidationError
	assert.True(t, errors.As(out[1].Err, &vErr))
	assert.Nil(t, out[1].Result)

	assert.NoError(t, out[2].Err)
	assert.Equal(t, "Third sentence", out[2].Result.OriginalText)
	assert.Equal(t, int64(2), h.calls(provider.DeepSeek))
}

func TestClearCache(t *testing.T) {
	h := newHarness(t, sharedKey)
	ctx := context.Background()

	_, err := h.o.Translate(ctx, "Clear me", models.Options{})
	require.NoError(t, err)
	require.NoError(t, h.o.ClearCache(ctx))

	res, err := h.o.Translate(ctx, "Clear me", models.Options{})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, int64(2), h.calls(provider.DeepSeek))
}
