package models

import "time"

const (
	DefaultSourceLanguage = "auto"
	DefaultTargetLanguage = "zh-CN"
)

// Options tune a single translate call.
type Options struct {
	SourceLanguage string `json:"sourceLang,omitempty"`
	TargetLanguage string `json:"targetLang,omitempty"`
	PromptCategory string `json:"promptType,omitempty"`
	Context        string `json:"context,omitempty"`

	// DisableCache skips both the lookup and the write (useCache=false).
	DisableCache bool `json:"disableCache,omitempty"`
	// ForceRefresh skips the lookup but still writes the fresh result.
	ForceRefresh bool `json:"forceRefresh,omitempty"`
}

// Result is the normalized outcome of a translation, whichever path produced it.
type Result struct {
	TranslatedText   string    `json:"translatedText"`
	OriginalText     string    `json:"originalText"`
	DetectedLanguage string    `json:"detectedLang"`
	Confidence       float64   `json:"confidence"`
	FromCache        bool      `json:"fromCache"`
	Provider         string    `json:"provider,omitempty"`
	Timestamp        time.Time `json:"timestamp"`

	IsFailover       bool   `json:"isFailover,omitempty"`
	OriginalProvider string `json:"originalProvider,omitempty"`

	CachedAt    time.Time `json:"cachedAt,omitempty"`
	AccessCount int64     `json:"accessCount,omitempty"`

	IsOCR bool `json:"isOCR,omitempty"`
}

// ConnectionResult is the outcome of a provider probe.
type ConnectionResult struct {
	Success        bool          `json:"success"`
	Provider       string        `json:"provider"`
	ResponseTime   time.Duration `json:"responseTime"`
	TranslatedText string        `json:"translatedText,omitempty"`
	Error          string        `json:"error,omitempty"`
	Message        string        `json:"message"`
}
