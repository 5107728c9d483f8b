package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/store"
	"goflare.io/glossa/pkg/serialization"
)

func newRepository(t *testing.T, typ string) (*Repository, store.Store) {
	t.Helper()
	st, err := store.NewMemoryStore(1e4, 1<<20, 64, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	codec, err := serialization.NewCodec(typ)
	require.NoError(t, err)
	return NewRepository(st, codec, zap.NewNop()), st
}

func TestNormalizeTransparency(t *testing.T) {
	assert.Equal(t, 0.8, NormalizeTransparency(80))
	assert.Equal(t, 0.8, NormalizeTransparency(0.8))
	assert.Equal(t, 1.0, NormalizeTransparency(1))
	assert.Equal(t, 0.0, NormalizeTransparency(-3))
	assert.Equal(t, 1.0, NormalizeTransparency(250))
}

func TestRepository_LoadDefaults(t *testing.T) {
	r, _ := newRepository(t, serialization.JSONType)
	s, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, "deepseek", s.APIProvider)
	assert.Equal(t, "Alt+T", s.Shortcuts.Toggle)
}

func TestRepository_RoundTrip(t *testing.T) {
	for _, typ := range []string{serialization.JSONType, serialization.GobType} {
		t.Run(typ, func(t *testing.T) {
			r, _ := newRepository(t, typ)
			ctx := context.Background()

			s := Defaults()
			s.APIKey = "sk-1"
			s.AutoTranslate = false
			s.Transparency = 60
			require.NoError(t, r.Save(ctx, s))

			got, err := r.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "sk-1", got.APIKey)
			assert.False(t, got.AutoTranslate)
			assert.Equal(t, 0.6, got.Transparency)
		})
	}
}

func TestRepository_PercentageInStore(t *testing.T) {
	r, st := newRepository(t, serialization.JSONType)
	require.NoError(t, st.Set(context.Background(), map[string][]byte{
		store.KeySettings: []byte(`{"apiKey":"k","transparency":80}`),
	}))

	s, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.8, s.Transparency)
	assert.Equal(t, "deepseek", s.APIProvider)
	assert.Equal(t, 14, s.FontSize)
}

func TestApply(t *testing.T) {
	base := Defaults()
	base.ProviderKeys = map[string]string{"openai": "sk-o", "gemini": "sk-g"}

	provider := "tongyi"
	transparency := 80.0
	font := 16
	out := Apply(base, models.SettingsPatch{
		APIProvider:  &provider,
		Transparency: &transparency,
		FontSize:     &font,
		ProviderKeys: map[string]string{"gemini": "", "tongyi": "sk-t"},
	})

	assert.Equal(t, "tongyi", out.APIProvider)
	assert.Equal(t, 0.8, out.Transparency)
	assert.Equal(t, 16, out.FontSize)
	assert.Equal(t, map[string]string{"openai": "sk-o", "tongyi": "sk-t"}, out.ProviderKeys)
	assert.Equal(t, base.TargetLanguage, out.TargetLanguage)
	assert.Equal(t, map[string]string{"openai": "sk-o", "gemini": "sk-g"}, base.ProviderKeys)
}
