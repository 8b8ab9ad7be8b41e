package jobs

import (
	"context"
	"log"
	"time"
)

// ExpiredEntrySweeper is implemented by caches that can drop expired entries
type ExpiredEntrySweeper interface {
	CleanupExpired() int
}

// CacheSweepJob periodically removes expired lesson cache entries. Lookups
// evict lazily; this bounds memory for entries nobody asks for again.
type CacheSweepJob struct {
	cache    ExpiredEntrySweeper
	interval time.Duration
	lastRun  time.Time
}

// NewCacheSweepJob creates a sweep job running every interval
func NewCacheSweepJob(cache ExpiredEntrySweeper, interval time.Duration) *CacheSweepJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CacheSweepJob{cache: cache, interval: interval}
}

// Run sweeps the cache once
func (j *CacheSweepJob) Run(ctx context.Context) error {
	j.lastRun = time.Now()

	if j.cache == nil {
		log.Println("⚠️  [CACHE-SWEEP] Skipped: no cache configured")
		return nil
	}

	if removed := j.cache.CleanupExpired(); removed > 0 {
		log.Printf("🧹 [CACHE-SWEEP] Removed %d expired entries", removed)
	}
	return nil
}

// GetNextRunTime returns when this job should next execute
func (j *CacheSweepJob) GetNextRunTime() time.Time {
	if j.lastRun.IsZero() {
		return time.Now().Add(j.interval)
	}
	return j.lastRun.Add(j.interval)
}
