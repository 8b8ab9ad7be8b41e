package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultDeletionDelay is how long a downloaded artifact survives
const DefaultDeletionDelay = 120 * time.Second

// ShutdownMode decides what happens to pending deletions on Shutdown
type ShutdownMode string

const (
	// ShutdownFlush deletes every pending artifact immediately
	ShutdownFlush ShutdownMode = "flush"
	// ShutdownCancel abandons pending deletions and leaves the files in place
	ShutdownCancel ShutdownMode = "cancel"
	// ShutdownWait lets timers fire normally until the shutdown context ends
	ShutdownWait ShutdownMode = "wait"
)

// ParseShutdownMode validates a configured mode. Empty means ShutdownFlush.
func ParseShutdownMode(s string) (ShutdownMode, error) {
	switch mode := ShutdownMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return ShutdownFlush, nil
	case ShutdownFlush, ShutdownCancel, ShutdownWait:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown deletion shutdown mode %q (want flush, cancel or wait)", s)
	}
}

type scheduledDeletion struct {
	path   string
	fireAt time.Time
	timer  *time.Timer
}

// DeletionScheduler removes ephemeral artifacts some time after they were
// handed out. Every scheduled deletion is tracked until it fires so Shutdown
// can flush, cancel or wait for the outstanding ones.
type DeletionScheduler struct {
	delay time.Duration
	mode  ShutdownMode

	mu      sync.Mutex
	pending map[uint64]*scheduledDeletion
	nextID  uint64
	closed  bool
	wg      sync.WaitGroup
}

// NewDeletionScheduler creates a scheduler. A non-positive delay falls back
// to DefaultDeletionDelay; an empty mode to ShutdownFlush.
func NewDeletionScheduler(delay time.Duration, mode ShutdownMode) *DeletionScheduler {
	if delay <= 0 {
		delay = DefaultDeletionDelay
	}
	if mode == "" {
		mode = ShutdownFlush
	}
	return &DeletionScheduler{
		delay:   delay,
		mode:    mode,
		pending: make(map[uint64]*scheduledDeletion),
	}
}

// Delay returns the default delay used by Schedule
func (s *DeletionScheduler) Delay() time.Duration {
	return s.delay
}

// Schedule deletes path after the default delay
func (s *DeletionScheduler) Schedule(path string) {
	s.ScheduleAfter(path, s.delay)
}

// ScheduleAfter deletes path after delay. It never blocks and never fails;
// scheduling after Shutdown is logged and ignored.
func (s *DeletionScheduler) ScheduleAfter(path string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Printf("⚠️  [CLEANUP] Scheduler stopped, not scheduling deletion of %s", filepath.Base(path))
		return
	}

	s.nextID++
	id := s.nextID
	d := &scheduledDeletion{path: path, fireAt: time.Now().Add(delay)}

	s.wg.Add(1)
	s.pending[id] = d
	d.timer = time.AfterFunc(delay, func() {
		s.fire(id)
	})

	log.Printf("⏰ [CLEANUP] Scheduled deletion of %s in %v", filepath.Base(path), delay)
}

// fire runs on the timer goroutine. Shutdown only removes entries whose timer
// it managed to stop, so the entry is always present here.
func (s *DeletionScheduler) fire(id uint64) {
	defer s.wg.Done()

	s.mu.Lock()
	d, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if ok {
		removeArtifact(d.path)
	}
}

// Pending returns the number of deletions that have not fired yet
func (s *DeletionScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Shutdown stops accepting new deletions and resolves the pending ones
// according to the configured mode. In ShutdownWait mode it returns the
// context error if timers are still outstanding when ctx ends.
func (s *DeletionScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	var stopped []*scheduledDeletion
	if s.mode != ShutdownWait {
		for id, d := range s.pending {
			if d.timer.Stop() {
				delete(s.pending, id)
				stopped = append(stopped, d)
			}
		}
	}
	remaining := len(s.pending)
	s.mu.Unlock()

	log.Printf("🛑 [CLEANUP] Shutting down deletion scheduler (mode=%s, stopped=%d, in flight=%d)",
		s.mode, len(stopped), remaining)

	for _, d := range stopped {
		if s.mode == ShutdownFlush {
			removeArtifact(d.path)
		} else {
			log.Printf("⏹️  [CLEANUP] Cancelled deletion of %s", filepath.Base(d.path))
		}
		s.wg.Done()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("✅ [CLEANUP] Deletion scheduler stopped")
		return nil
	case <-ctx.Done():
		log.Printf("⚠️  [CLEANUP] Gave up waiting for %d pending deletion(s): %v", s.Pending(), ctx.Err())
		return ctx.Err()
	}
}

// removeArtifact deletes path if it still exists. Failures are logged only.
func removeArtifact(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		log.Printf("🗑️  [CLEANUP] Deleted %s", filepath.Base(path))
	case errors.Is(err, os.ErrNotExist):
		log.Printf("ℹ️  [CLEANUP] %s already removed", filepath.Base(path))
	default:
		log.Printf("❌ [CLEANUP] Failed to delete %s: %v", filepath.Base(path), err)
	}
}
