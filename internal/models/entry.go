package models

import (
	"time"
)

// Entry is one cached translation.
type Entry struct {
	OriginalText      string    `json:"originalText"`
	TranslatedText    string    `json:"translatedText"`
	TargetLanguage    string    `json:"targetLang"`
	PromptCategory    string    `json:"promptType"`
	DetectedLanguage  string    `json:"detectedLang"`
	Confidence        float64   `json:"confidence"`
	CreatedAt         time.Time `json:"createdAt"`
	LastAccessedAt    time.Time `json:"lastAccessed"`
	AccessCount       int64     `json:"accessCount"`
	TextLength        int       `json:"textLength"`
	TranslationLength int       `json:"translationLength"`
}

// IsExpired checks if the entry is older than ttl at now.
func (e *Entry) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) > ttl
}

// IncrementAccess increments the access count and updates the last access time.
func (e *Entry) IncrementAccess(now time.Time) {
	e.AccessCount++
	e.LastAccessedAt = now
}

// EntryMetadata carries the optional fields of a cache write.
type EntryMetadata struct {
	DetectedLanguage string
	Confidence       float64
}

// CacheStats are the persisted cache counters.
type CacheStats struct {
	Initialized bool      `json:"initialized"`
	TotalHits   int64     `json:"totalHits"`
	TotalMisses int64     `json:"totalMisses"`
	TotalSaves  int64     `json:"totalSaves"`
	LastCleanup time.Time `json:"lastCleanup"`
	CacheSize   int       `json:"cacheSize"`
}

// UsageReport summarizes the cache for status screens.
type UsageReport struct {
	CacheSize   int       `json:"cacheSize"`
	MaxSize     int       `json:"maxSize"`
	HitRate     int       `json:"hitRate"`
	TotalHits   int64     `json:"totalHits"`
	TotalMisses int64     `json:"totalMisses"`
	TotalSaves  int64     `json:"totalSaves"`
	LastCleanup time.Time `json:"lastCleanup"`
	OldestEntry time.Time `json:"oldestEntry"`
	NewestEntry time.Time `json:"newestEntry"`
}
