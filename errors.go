package glossa

import "goflare.io/glossa/internal/models"

type (
	ConfigError       = models.ConfigError
	ValidationError   = models.ValidationError
	ProviderError     = models.ProviderError
	CacheError        = models.CacheError
	TotalFailureError = models.TotalFailureError
)

var (
	ErrEmptyText       = models.ErrEmptyText
	ErrTextTooShort    = models.ErrTextTooShort
	ErrTextTooLong     = models.ErrTextTooLong
	ErrNotTranslatable = models.ErrNotTranslatable
	ErrMissingAPIKey   = models.ErrMissingAPIKey
	ErrUnknownProvider = models.ErrUnknownProvider
	ErrEmptyImage      = models.ErrEmptyImage
	ErrNoTextInImage   = models.ErrNoTextInImage
)
