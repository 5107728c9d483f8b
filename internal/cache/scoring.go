package cache

import (
	"math"
	"sort"
	"time"

	"goflare.io/glossa/internal/models"
)

const (
	ageWeight     = 0.3
	accessWeight  = 0.5
	recencyWeight = 0.2

	accessSaturation = 10
	recencyWindow    = 24 * time.Hour
)

// score rates how much an entry is worth keeping. Higher is better.
func score(e *models.Entry, now time.Time, ttl time.Duration) float64 {
	age := now.Sub(e.CreatedAt)
	sinceAccess := now.Sub(e.LastAccessedAt)

	ageScore := math.Max(0, 1-float64(age)/float64(ttl))
	accessScore := math.Min(1, float64(e.AccessCount)/accessSaturation)
	recentScore := math.Max(0, 1-float64(sinceAccess)/float64(recencyWindow))

	return ageWeight*ageScore + accessWeight*accessScore + recencyWeight*recentScore
}

// evict drops expired entries and then keeps only the keep best scored ones.
// It returns the number of entries removed.
func evict(entries map[string]*models.Entry, now time.Time, ttl time.Duration, keep int) int {
	removed := 0
	for k, e := range entries {
		if e.IsExpired(now, ttl) {
			delete(entries, k)
			removed++
		}
	}
	if len(entries) <= keep {
		return removed
	}

	type scored struct {
		key   string
		score float64
	}
	ranked := make([]scored, 0, len(entries))
	for k, e := range entries {
		ranked = append(ranked, scored{key: k, score: score(e, now, ttl)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score == ranked[j].score {
			return ranked[i].key < ranked[j].key
		}
		return ranked[i].score > ranked[j].score
	})

	for _, r := range ranked[keep:] {
		delete(entries, r.key)
		removed++
	}
	return removed
}
