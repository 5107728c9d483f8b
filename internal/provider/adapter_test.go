package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/config"
	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/prompt"
)

type captured struct {
	path  string
	query map[string]string
	auth  string
	body  map[string]any
}

func newServer(t *testing.T, status int, response string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.path = r.URL.Path
			got.auth = r.Header.Get("Authorization")
			got.query = map[string]string{}
			for k := range r.URL.Query() {
				got.query[k] = r.URL.Query().Get(k)
			}
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAdapter(t *testing.T, kind Kind, key, baseURL string, opts ...config.Option) *HTTPAdapter {
	t.Helper()
	opts = append([]config.Option{
		config.WithLogger(zap.NewNop()),
		config.WithProviderBaseURL(kind.String(), baseURL),
		config.WithProviderMinDelay(kind.String(), 0),
	}, opts...)
	cfg, err := config.NewConfig(opts...)
	require.NoError(t, err)

	a, err := New(kind, key, prompt.NewSelector(prompt.AlwaysGeneral), cfg)
	require.NoError(t, err)
	return a
}

func TestHTTPAdapter_Variants(t *testing.T) {
	tests := []struct {
		kind      Kind
		response  string
		wantPath  string
		wantAuth  string
		wantQuery map[string]string
		checkBody func(t *testing.T, body map[string]any)
	}{
		{
			kind:     DeepSeek,
			response: `{"choices":[{"message":{"role":"assistant","content":"  你好  "}}]}`,
			wantPath: "/chat/completions",
			wantAuth: "Bearer sk-test",
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "deepseek-chat", body["model"])
				assert.EqualValues(t, 2000, body["max_tokens"])
				assert.EqualValues(t, 0.3, body["temperature"])
			},
		},
		{
			kind:     OpenAI,
			response: `{"choices":[{"message":{"content":"你好"}}]}`,
			wantPath: "/chat/completions",
			wantAuth: "Bearer sk-test",
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "gpt-3.5-turbo", body["model"])
			},
		},
		{
			kind:     Tongyi,
			response: `{"output":{"text":"你好"}}`,
			wantPath: "/services/aigc/text-generation/generation",
			wantAuth: "Bearer sk-test",
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "qwen-turbo", body["model"])
				input := body["input"].(map[string]any)
				assert.Contains(t, input["prompt"], "Hello")
			},
		},
		{
			kind:      Gemini,
			response:  `{"candidates":[{"content":{"parts":[{"text":"你好"}]}}]}`,
			wantPath:  "/models/gemini-pro:generateContent",
			wantQuery: map[string]string{"key": "sk-test"},
			checkBody: func(t *testing.T, body map[string]any) {
				gen := body["generationConfig"].(map[string]any)
				assert.EqualValues(t, 2000, gen["maxOutputTokens"])
			},
		},
		{
			kind:      Wenxin,
			response:  `{"result":"你好"}`,
			wantPath:  "/ai_custom/v1/wenxinworkshop/chat/eb-instant",
			wantQuery: map[string]string{"access_token": "sk-test"},
			checkBody: func(t *testing.T, body map[string]any) {
				assert.EqualValues(t, 2000, body["max_output_tokens"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			var got captured
			srv := newServer(t, http.StatusOK, tt.response, &got)
			a := newAdapter(t, tt.kind, "sk-test", srv.URL)

			res, err := a.Translate(context.Background(), Request{Text: "Hello", Category: prompt.General})
			require.NoError(t, err)

			assert.Equal(t, "你好", res.TranslatedText)
			assert.Equal(t, "Hello", res.OriginalText)
			assert.Equal(t, "auto", res.DetectedLanguage)
			assert.Equal(t, 0.9, res.Confidence)
			assert.Equal(t, tt.kind.String(), res.Provider)
			assert.False(t, res.FromCache)

			assert.Equal(t, tt.wantPath, got.path)
			assert.Equal(t, tt.wantAuth, got.auth)
			for k, v := range tt.wantQuery {
				assert.Equal(t, v, got.query[k])
			}
			tt.checkBody(t, got.body)

			stats := a.Stats()
			assert.Equal(t, int64(1), stats.Requests)
			assert.Zero(t, stats.Failures)
		})
	}
}

func TestHTTPAdapter_MissingKey(t *testing.T) {
	a := newAdapter(t, DeepSeek, "   ", "http://127.0.0.1:1")
	_, err := a.Translate(context.Background(), Request{Text: "Hello"})

	var cfgErr *models.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, models.ErrMissingAPIKey)
	assert.Zero(t, a.Stats().Requests)
}

func TestHTTPAdapter_ErrorStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		response string
		wantMsg  string
	}{
		{DeepSeek, `{"error":{"message":"invalid api key"}}`, "invalid api key"},
		{Tongyi, `{"message":"quota exhausted"}`, "quota exhausted"},
		{Wenxin, `{"error_msg":"access token invalid"}`, "access token invalid"},
		{Gemini, `not json`, "Unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			srv := newServer(t, http.StatusUnauthorized, tt.response, nil)
			a := newAdapter(t, tt.kind, "sk-test", srv.URL)

			_, err := a.Translate(context.Background(), Request{Text: "Hello"})
			var pErr *models.ProviderError
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, http.StatusUnauthorized, pErr.Status)
			assert.Equal(t, tt.wantMsg, pErr.Message)
			assert.True(t, pErr.Temporary())
			assert.Equal(t, int64(1), a.Stats().Failures)
		})
	}
}

func TestHTTPAdapter_EmptyResult(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"choices":[]}`, nil)
	a := newAdapter(t, OpenAI, "sk-test", srv.URL)

	_, err := a.Translate(context.Background(), Request{Text: "Hello"})
	var pErr *models.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.ErrorIs(t, err, models.ErrEmptyResponse)
	assert.Equal(t, http.StatusOK, pErr.Status)
}

func TestHTTPAdapter_ContextReachesPrompt(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{"result":"ok"}`, &got)
	a := newAdapter(t, Wenxin, "sk-test", srv.URL)

	_, err := a.Translate(context.Background(), Request{Text: "B", Category: prompt.Contextual, Context: "A"})
	require.NoError(t, err)

	msgs := got.body["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].(string)
	assert.Contains(t, content, "**上下文信息**：A")
	assert.Contains(t, content, "**当前段落**：B")
}

func TestHTTPAdapter_EmptyContextLeavesNoPlaceholder(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{"result":"ok"}`, &got)
	a := newAdapter(t, Wenxin, "sk-test", srv.URL)

	_, err := a.Translate(context.Background(), Request{Text: "Hello there", Category: prompt.Contextual})
	require.NoError(t, err)

	msgs := got.body["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].(string)
	assert.NotContains(t, content, "{context}")
	assert.Contains(t, content, "**当前段落**：Hello there")
}

func TestHTTPAdapter_RateLimit(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"output":{"text":"ok"}}`, nil)
	a := newAdapter(t, Tongyi, "sk-test", srv.URL, config.WithProviderMinDelay(Tongyi.String(), 80*time.Millisecond))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := a.Translate(context.Background(), Request{Text: "Hello"})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestHTTPAdapter_BreakerOpens(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, `{}`, nil)
	a := newAdapter(t, DeepSeek, "sk-test", srv.URL, config.WithCircuitBreaker(gobreaker.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	}))

	for i := 0; i < 2; i++ {
		_, err := a.Translate(context.Background(), Request{Text: "Hello"})
		require.Error(t, err)
	}

	_, err := a.Translate(context.Background(), Request{Text: "Hello"})
	var pErr *models.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.False(t, pErr.Temporary())
	assert.Equal(t, "open", a.Stats().BreakerState)

	// 斷路器開啟後仍保留觸發它的錯誤
	assert.Equal(t, http.StatusInternalServerError, pErr.Status)
	assert.Equal(t, "Internal Server Error", pErr.Message)
	var cause *models.ProviderError
	require.ErrorAs(t, pErr.Err, &cause)
	assert.Equal(t, http.StatusInternalServerError, cause.Status)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Gemini ")
	require.NoError(t, err)
	assert.Equal(t, Gemini, k)

	_, err = ParseKind("claude")
	assert.ErrorIs(t, err, models.ErrUnknownProvider)

	assert.Equal(t, []string{"deepseek", "tongyi", "wenxin", "openai", "gemini"}, Names())
}
