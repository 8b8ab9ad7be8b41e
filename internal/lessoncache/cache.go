// Package lessoncache keeps generated lesson data in memory, keyed by the
// fingerprint of the request that produced it, so identical requests do not
// reach the generation provider twice within the TTL.
package lessoncache

import (
	"log"
	"math"
	"sync"
	"time"

	"cahier/internal/models"
	"cahier/internal/security"

	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a generated lesson stays valid
const DefaultTTL = 24 * time.Hour

// entry is stored in go-cache without expiration: TTL is enforced here so
// lookups and sweeps share one clock and one age rule.
type entry struct {
	payload   models.LessonData
	createdAt time.Time
}

// Stats is a snapshot of cache accounting
type Stats struct {
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	TotalRequests  int64   `json:"total_requests"`
	HitRatePercent float64 `json:"hit_rate_percent"`
	Size           int     `json:"cache_size"`
}

// Cache is a TTL cache for generation results
type Cache struct {
	items *cache.Cache
	ttl   time.Duration
	now   func() time.Time

	// mu guards the check-then-evict sequence in Get and the counters
	mu            sync.Mutex
	hits          int64
	misses        int64
	totalRequests int64
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache whose entries expire ttl after insertion.
// A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache{
		items: cache.New(cache.NoExpiration, 0),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached lesson data for the request, or false on a miss.
// An entry whose age reached the TTL is evicted and counted as a miss.
func (c *Cache) Get(content, language, subject, session string) (models.LessonData, bool) {
	key := security.Fingerprint(content, language, subject, session)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++

	value, found := c.items.Get(key.String())
	if found {
		e := value.(*entry)
		if c.now().Sub(e.createdAt) < c.ttl {
			c.hits++
			log.Printf("✅ [LESSON-CACHE] HIT for key %s...", key.Short())
			return e.payload, true
		}

		c.items.Delete(key.String())
		log.Printf("⏰ [LESSON-CACHE] EXPIRED key %s...", key.Short())
	}

	c.misses++
	log.Printf("❌ [LESSON-CACHE] MISS for key %s...", key.Short())
	return nil, false
}

// Set stores data for the request, replacing any previous entry wholesale
func (c *Cache) Set(content, language, subject, session string, data models.LessonData) {
	key := security.Fingerprint(content, language, subject, session)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Set(key.String(), &entry{payload: data, createdAt: c.now()}, cache.NoExpiration)
	log.Printf("💾 [LESSON-CACHE] Cached lesson data for key %s...", key.Short())
}

// Clear removes every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Flush()
	log.Println("🗑️  [LESSON-CACHE] Cache cleared")
}

// Stats returns the current counters and size
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := 0.0
	if c.totalRequests > 0 {
		hitRate = float64(c.hits) / float64(c.totalRequests) * 100
		hitRate = math.Round(hitRate*100) / 100
	}

	return Stats{
		Hits:           c.hits,
		Misses:         c.misses,
		TotalRequests:  c.totalRequests,
		HitRatePercent: hitRate,
		Size:           c.items.ItemCount(),
	}
}

// Len returns the number of stored entries, expired ones included
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// CleanupExpired removes every entry whose age reached the TTL and returns
// how many were removed
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items.Items() {
		e, ok := item.Object.(*entry)
		if !ok || now.Sub(e.createdAt) >= c.ttl {
			c.items.Delete(key)
			removed++
		}
	}

	if removed > 0 {
		log.Printf("🧹 [LESSON-CACHE] Cleaned up %d expired cache entries", removed)
	}
	return removed
}
