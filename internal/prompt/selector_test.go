package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_Render(t *testing.T) {
	s := NewSelector(AlwaysGeneral)

	out := s.Render(General, map[string]string{"source_text": "Hello"})
	assert.True(t, strings.HasSuffix(out, "原文：Hello"))
	assert.NotContains(t, out, "{source_text}")

	unknown := s.Render("no-such-category", map[string]string{"source_text": "Hello"})
	assert.Equal(t, out, unknown)

	ctx := s.Render(Contextual, map[string]string{"current_text": "B"})
	assert.Contains(t, ctx, "**当前段落**：B")
	assert.Contains(t, ctx, "{context}")
}

func TestSelector_DetectDefaultsToGeneral(t *testing.T) {
	s := NewSelector(AlwaysGeneral)
	assert.Equal(t, General, s.Detect("The API function returns a database client", ""))
	assert.Equal(t, General, s.Detect("", "some context"))
}

func TestSelector_KeywordScoring(t *testing.T) {
	s := NewSelector(KeywordScoring)

	tests := []struct {
		name    string
		text    string
		context string
		want    string
	}{
		{"technical", "Install the library, then configure the server and debug the client code.", "", Technical},
		{"academic", "This study presents an empirical analysis; the results support the hypothesis (2019).", "", Academic},
		{"news", "BREAKING: the government announced a new policy, officials said today.", "", News},
		{"business", "The contract terms require the company to share quarterly revenue with each shareholder.", "", Business},
		{"literary", "The protagonist of the novel faces the antagonist in the final chapter.", "", Literary},
		{"casual", "hey thanks, see you later!", "", Casual},
		{"no signal", "Zebras graze quietly.", "", General},
		{"no signal with context", "Zebras graze quietly.", "a savanna", Contextual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Detect(tt.text, tt.context))
		})
	}
}

func TestSelector_AddRemoveTemplate(t *testing.T) {
	s := NewSelector(KeywordScoring)

	require.NoError(t, s.AddTemplate("medical", "Translate the medical text: {source_text}", "diagnosis", "patient"))
	assert.True(t, s.Has("medical"))
	assert.Equal(t, "Translate the medical text: x", s.Render("medical", map[string]string{"source_text": "x"}))
	assert.Equal(t, "medical", s.Detect("The patient diagnosis was confirmed.", ""))

	require.NoError(t, s.RemoveTemplate("medical"))
	assert.False(t, s.Has("medical"))
	assert.Equal(t, General, s.Detect("The patient diagnosis was confirmed.", ""))

	assert.ErrorIs(t, s.RemoveTemplate(General), ErrProtectedTemplate)
	assert.True(t, s.Has(General))

	assert.ErrorIs(t, s.AddTemplate("", "x"), ErrEmptyCategory)
	assert.ErrorIs(t, s.AddTemplate("x", ""), ErrEmptyTemplate)
}

func TestSelector_Categories(t *testing.T) {
	s := NewSelector(AlwaysGeneral)
	assert.Equal(t, []string{Academic, Business, Casual, Contextual, General, Literary, News, Technical}, s.Categories())
}
