package models

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyText       = errors.New("text to translate is empty")
	ErrTextTooShort    = errors.New("text is too short to translate")
	ErrTextTooLong     = errors.New("text is too long, translate it in segments")
	ErrNotTranslatable = errors.New("text contains only digits, whitespace or punctuation")
	ErrMissingAPIKey   = errors.New("api key is not configured")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrEmptyImage      = errors.New("image data is empty")
	ErrNoTextInImage   = errors.New("no text detected in image")
	ErrEmptyResponse   = errors.New("provider returned an empty translation")
)

// ConfigError reports a missing credential or an unknown provider. It is never retried.
type ConfigError struct {
	Provider string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error for provider %s: %v", e.Provider, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ValidationError reports input that must never reach a provider.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation error: %v", e.Err) }

func (e *ValidationError) Unwrap() error { return e.Err }

// ProviderError reports a failed backend call: a non-2xx response, a response
// without usable text, or a transport failure (Status 0).
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	Err      error

	// Permanent marks failures that retrying the same provider cannot fix,
	// such as an open circuit breaker.
	Permanent bool
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s api error: %d - %s", e.Provider, e.Status, msg)
	}
	return fmt.Sprintf("%s api error: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Temporary lets the retrier treat provider failures as retryable.
func (e *ProviderError) Temporary() bool { return !e.Permanent }

// CacheError wraps persistent store failures inside the cache. Callers of the
// orchestrator never see it.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string { return fmt.Sprintf("cache %s failed: %v", e.Op, e.Err) }

func (e *CacheError) Unwrap() error { return e.Err }

// TotalFailureError is returned once the configured provider and every
// failover candidate failed. It carries the configured provider's last error.
type TotalFailureError struct {
	Provider string
	Err      error
}

func (e *TotalFailureError) Error() string {
	return fmt.Sprintf("translation failed: %v", e.Err)
}

func (e *TotalFailureError) Unwrap() error { return e.Err }
