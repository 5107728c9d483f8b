package cache

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"goflare.io/glossa/internal/config"
)

// keyFilter remembers which entry keys this process has seen in the store.
// A negative Test is a guaranteed miss and lets Get skip reading the entries blob.
type keyFilter struct {
	mu       sync.RWMutex
	settings config.BloomFilterConfig
	filter   *bloom.BloomFilter
}

func newKeyFilter(settings config.BloomFilterConfig) *keyFilter {
	return &keyFilter{
		settings: settings,
		filter:   bloom.NewWithEstimates(settings.ExpectedItems, settings.FalsePositiveRate),
	}
}

// Add adds a key to the filter.
func (f *keyFilter) Add(key string) {
	f.mu.Lock()
	f.filter.Add([]byte(key))
	f.mu.Unlock()
}

// Test checks if a key might be present.
func (f *keyFilter) Test(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.Test([]byte(key))
}

// Rebuild replaces the filter with one holding exactly keys.
// Removed keys can only be dropped this way.
func (f *keyFilter) Rebuild(keys []string) {
	next := bloom.NewWithEstimates(f.settings.ExpectedItems, f.settings.FalsePositiveRate)
	for _, k := range keys {
		next.Add([]byte(k))
	}
	f.mu.Lock()
	f.filter = next
	f.mu.Unlock()
}

// Reset empties the filter.
func (f *keyFilter) Reset() {
	f.mu.Lock()
	f.filter.ClearAll()
	f.mu.Unlock()
}
