package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fakeProvider(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	calls := atomic.NewInt64(0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Inc()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"你好"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GLOSSA_PORT=9999\nGLOSSA_CACHE_TTL=1h\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("GLOSSA_PORT")
		os.Unsetenv("GLOSSA_CACHE_TTL")
	})

	env, err := loadEnv(path, true)
	require.NoError(t, err)
	assert.Equal(t, 9999, env.Port)
	assert.Equal(t, "1h0m0s", env.CacheTTL.String())
	assert.Equal(t, "glossa:", env.RedisPrefix)
	assert.Equal(t, 3, env.MaxRetries)

	_, err = loadEnv(filepath.Join(dir, "missing.env"), false)
	assert.NoError(t, err)
	_, err = loadEnv(filepath.Join(dir, "missing.env"), true)
	assert.Error(t, err)
}

func TestLoadEnv_InvalidLogLevel(t *testing.T) {
	t.Setenv("GLOSSA_LOG_LEVEL", "loud")
	env, err := loadEnv("", false)
	require.NoError(t, err)
	_, err = env.logger()
	assert.Error(t, err)
}

func TestTranslateCommand(t *testing.T) {
	srv, calls := fakeProvider(t)
	mr := miniredis.RunT(t)
	t.Setenv("GLOSSA_LOG_LEVEL", "error")
	t.Setenv("GLOSSA_API_KEY", "sk-test")
	t.Setenv("GLOSSA_BASE_URL", srv.URL)
	t.Setenv("GLOSSA_REDIS_ADDR", mr.Addr())

	out, err := run(t, "translate", "Hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "你好\n", out)

	out, err = run(t, "translate", "--json", "Hello", "world")
	require.NoError(t, err)
	var res struct {
		TranslatedText string `json:"translatedText"`
		FromCache      bool   `json:"fromCache"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.FromCache)
	assert.Equal(t, int64(1), calls.Load())

	out, err = run(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cache cleared")

	out, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, `"currentProvider": "deepseek"`)
	assert.Contains(t, out, `"apiKey": "***"`)
}

func TestTranslateCommand_NothingToTranslate(t *testing.T) {
	t.Setenv("GLOSSA_LOG_LEVEL", "error")
	_, err := run(t, "translate")
	assert.Error(t, err)
}

func TestTestCommand(t *testing.T) {
	srv, _ := fakeProvider(t)
	t.Setenv("GLOSSA_LOG_LEVEL", "error")
	t.Setenv("GLOSSA_BASE_URL", srv.URL)

	out, err := run(t, "test", "deepseek", "--key", "sk-probe")
	require.NoError(t, err)
	assert.Contains(t, out, `"success": true`)

	_, err = run(t, "test", "deepseek")
	assert.Error(t, err)
}
