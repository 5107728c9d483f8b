package models

import "time"

// UsageCounters are the per-period usage numbers.
type UsageCounters struct {
	APICalls             int64 `json:"apiCalls"`
	CacheHits            int64 `json:"cacheHits"`
	CharactersTranslated int64 `json:"charactersTranslated"`
}

// UsageTotals are the running totals since first use.
type UsageTotals struct {
	UsageCounters
	FirstUseDate time.Time `json:"firstUseDate"`
}

// UsageStats is the persisted usage blob, keyed by day (YYYY-MM-DD).
type UsageStats struct {
	Daily map[string]*UsageCounters `json:"daily"`
	Total UsageTotals               `json:"total"`
}

// ImageStats counts image translations.
type ImageStats struct {
	Daily map[string]int64 `json:"daily"`
	Total int64            `json:"total"`
}
