package lessoncache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"cahier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 5, 8, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestNewDefaultsTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(0).TTL())
	assert.Equal(t, DefaultTTL, New(-time.Second).TTL())
	assert.Equal(t, time.Minute, New(time.Minute).TTL())
}

func TestSetThenGetIsHit(t *testing.T) {
	c := New(time.Hour)
	data := models.LessonData{"objective": "Lire des mots simples"}

	c.Set("slides", "French", "Français", "1", data)

	got, ok := c.Get("slides", "French", "Français", "1")
	require.True(t, ok)
	assert.Equal(t, data, got)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, 100.0, stats.HitRatePercent)
	assert.Equal(t, 1, stats.Size)
}

func TestGetMissOnUnknownKey(t *testing.T) {
	c := New(time.Hour)
	c.Set("slides", "French", "Français", "1", models.LessonData{"x": 1})

	_, ok := c.Get("slides", "French", "Français", "2")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestTTLBoundary(t *testing.T) {
	clock := newFakeClock()
	c := New(10*time.Second, WithClock(clock.Now))
	c.Set("k", "fr", "math", "1", models.LessonData{"x": 1})

	clock.Advance(10*time.Second - time.Nanosecond)
	_, ok := c.Get("k", "fr", "math", "1")
	assert.True(t, ok, "entry should be valid just before the TTL")

	clock.Advance(time.Nanosecond)
	_, ok = c.Get("k", "fr", "math", "1")
	assert.False(t, ok, "entry should be absent once its age equals the TTL")
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted on lookup")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.TotalRequests)
}

func TestSetReplacesEntryAndResetsAge(t *testing.T) {
	clock := newFakeClock()
	c := New(10*time.Second, WithClock(clock.Now))

	c.Set("k", "fr", "math", "1", models.LessonData{"a": 1, "b": 2})
	clock.Advance(8 * time.Second)
	c.Set("k", "fr", "math", "1", models.LessonData{"c": 3})
	clock.Advance(8 * time.Second)

	got, ok := c.Get("k", "fr", "math", "1")
	require.True(t, ok)
	assert.Equal(t, models.LessonData{"c": 3}, got, "re-insertion must not merge old fields")
	assert.Equal(t, 1, c.Len())
}

func TestClearKeepsCounters(t *testing.T) {
	c := New(time.Hour)
	c.Set("a", "fr", "s", "1", models.LessonData{})
	c.Get("a", "fr", "s", "1")
	c.Get("b", "fr", "s", "1")

	c.Clear()

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.TotalRequests)

	_, ok := c.Get("a", "fr", "s", "1")
	assert.False(t, ok)
}

func TestStatsHitRateRounding(t *testing.T) {
	c := New(time.Hour)
	assert.Equal(t, 0.0, c.Stats().HitRatePercent, "no requests means 0% hit rate")

	c.Set("a", "fr", "s", "1", models.LessonData{})
	c.Get("a", "fr", "s", "1")
	c.Get("b", "fr", "s", "1")
	c.Get("c", "fr", "s", "1")

	assert.Equal(t, 33.33, c.Stats().HitRatePercent)
}

func TestCleanupExpired(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, WithClock(clock.Now))

	c.Set("old1", "fr", "s", "1", models.LessonData{})
	c.Set("old2", "fr", "s", "1", models.LessonData{})
	clock.Advance(45 * time.Second)
	c.Set("fresh", "fr", "s", "1", models.LessonData{"keep": true})
	clock.Advance(15 * time.Second)

	removed := c.CleanupExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("fresh", "fr", "s", "1")
	require.True(t, ok)
	assert.Equal(t, true, got["keep"])
}

func TestCleanupExpiredNoop(t *testing.T) {
	c := New(time.Hour)
	c.Set("a", "fr", "s", "1", models.LessonData{})
	before := c.Stats()

	assert.Equal(t, 0, c.CleanupExpired())
	assert.Equal(t, before, c.Stats())
}

func TestCountersUnderConcurrency(t *testing.T) {
	c := New(time.Hour)
	c.Set("hot", "fr", "s", "1", models.LessonData{})

	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if i%2 == 0 {
					c.Get("hot", "fr", "s", "1")
				} else {
					c.Get(fmt.Sprintf("cold-%d-%d", w, i), "fr", "s", "1")
				}
				if i%50 == 0 {
					c.Set(fmt.Sprintf("new-%d-%d", w, i), "fr", "s", "1", models.LessonData{})
				}
			}
		}(w)
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, int64(workers*perWorker), stats.TotalRequests)
	assert.Equal(t, int64(workers*perWorker/2), stats.Hits)
	assert.Equal(t, int64(workers*perWorker/2), stats.Misses)
	assert.Equal(t, stats.TotalRequests, stats.Hits+stats.Misses)
}

func TestExpiryWithRealClock(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps past a one second TTL")
	}

	c := New(time.Second)
	c.Set("k", "fr", "math", "1", models.LessonData{"x": 1})

	got, ok := c.Get("k", "fr", "math", "1")
	require.True(t, ok)
	assert.Equal(t, models.LessonData{"x": 1}, got)

	time.Sleep(1100 * time.Millisecond)

	_, ok = c.Get("k", "fr", "math", "1")
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().Misses)
}
