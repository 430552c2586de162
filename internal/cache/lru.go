package cache

import (
	"sync/atomic"

	"github.com/HanTheDev/complexity-analyzer/internal/metrics"
	"github.com/HanTheDev/complexity-analyzer/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies a cached analysis. Code is compared byte for byte, so any
// whitespace or comment change is a different key.
type Key struct {
	Code  string
	Model string
}

// AnalysisCache is a fixed-capacity LRU of cleaned model output. Entries never
// expire; they leave only through eviction or Purge.
type AnalysisCache struct {
	lru      *lru.Cache[Key, string]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

func NewAnalysisCache(capacity int) (*AnalysisCache, error) {
	ac := &AnalysisCache{capacity: capacity}

	l, err := lru.NewWithEvict[Key, string](capacity, func(Key, string) {
		ac.evictions.Add(1)
		metrics.CacheEvictionsTotal.Inc()
	})
	if err != nil {
		return nil, err
	}
	ac.lru = l

	return ac, nil
}

// Get returns the stored output for key and marks it most recently used.
func (ac *AnalysisCache) Get(key Key) (string, bool) {
	value, ok := ac.lru.Get(key)
	if ok {
		ac.hits.Add(1)
		metrics.CacheHitsTotal.Inc()
	} else {
		ac.misses.Add(1)
		metrics.CacheMissesTotal.Inc()
	}
	return value, ok
}

// Add stores value under key, evicting the least recently used entry when full.
func (ac *AnalysisCache) Add(key Key, value string) {
	ac.lru.Add(key, value)
}

// Peek returns the stored output without touching recency or hit counters.
func (ac *AnalysisCache) Peek(key Key) (string, bool) {
	return ac.lru.Peek(key)
}

func (ac *AnalysisCache) Len() int {
	return ac.lru.Len()
}

// Purge drops every entry and returns how many there were. Purged entries are
// counted as evictions.
func (ac *AnalysisCache) Purge() int {
	n := ac.lru.Len()
	ac.lru.Purge()
	return n
}

func (ac *AnalysisCache) Stats() models.CacheStats {
	return models.CacheStats{
		Entries:   ac.lru.Len(),
		Capacity:  ac.capacity,
		Hits:      ac.hits.Load(),
		Misses:    ac.misses.Load(),
		Evictions: ac.evictions.Load(),
	}
}
