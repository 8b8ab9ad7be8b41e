package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// DocumentTracker forgets generated documents whose file no longer exists
type DocumentTracker interface {
	ForgetMissing() int
}

// ArtifactSweepJob removes output artifacts that were never downloaded and
// drops tracked documents whose file is gone.
type ArtifactSweepJob struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	tracker  DocumentTracker
	lastRun  time.Time
}

// NewArtifactSweepJob creates a sweep over dir. Files older than maxAge are
// deleted; tracker may be nil.
func NewArtifactSweepJob(dir string, maxAge, interval time.Duration, tracker DocumentTracker) *ArtifactSweepJob {
	return &ArtifactSweepJob{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		tracker:  tracker,
	}
}

// Run performs one sweep
func (j *ArtifactSweepJob) Run(ctx context.Context) error {
	j.lastRun = time.Now()

	removed, err := CleanupStaleArtifacts(ctx, j.dir, j.maxAge)
	if err != nil {
		log.Printf("❌ [ARTIFACT-SWEEP] %v", err)
		return err
	}
	if removed > 0 {
		log.Printf("🧹 [ARTIFACT-SWEEP] Removed %d stale artifact(s) from %s", removed, j.dir)
	}

	if j.tracker != nil {
		if forgotten := j.tracker.ForgetMissing(); forgotten > 0 {
			log.Printf("🧹 [ARTIFACT-SWEEP] Forgot %d document(s) whose file vanished", forgotten)
		}
	}
	return nil
}

// GetNextRunTime returns when this job should next execute
func (j *ArtifactSweepJob) GetNextRunTime() time.Time {
	if j.lastRun.IsZero() {
		// first run: 1 minute after startup
		return time.Now().Add(1 * time.Minute)
	}
	return j.lastRun.Add(j.interval)
}

// CleanupStaleArtifacts deletes regular files in dir last modified more than
// maxAge ago. A missing directory is not an error.
func CleanupStaleArtifacts(ctx context.Context, dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read output directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("⚠️  [ARTIFACT-SWEEP] Failed to delete %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}
