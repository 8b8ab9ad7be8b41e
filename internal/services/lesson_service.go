package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cahier/internal/lessoncache"
	"cahier/internal/logging"
	"cahier/internal/models"
	"cahier/internal/registry"
	"cahier/internal/security"
	"cahier/internal/utils"

	"golang.org/x/sync/singleflight"
)

// ErrLessonNotFound is returned when a registry id is unknown
var ErrLessonNotFound = errors.New("lesson not found")

// Generator produces lesson data for a request. GeneratorService is the
// production implementation.
type Generator interface {
	Generate(ctx context.Context, req models.GenerateRequest, language string, steps []string) (models.LessonData, error)
}

// LessonService is the entry point used by the HTTP layer: it fronts the
// generation provider with the lesson cache and exposes the registry.
type LessonService struct {
	cache     *lessoncache.Cache
	generator Generator
	catalog   *StepCatalog
	syncer    *registry.Synchronizer
	metrics   *Metrics

	// collapses concurrent misses for the same fingerprint into one call
	inflight singleflight.Group
}

// NewLessonService wires the lesson service. metrics may be nil.
func NewLessonService(cache *lessoncache.Cache, generator Generator, catalog *StepCatalog, syncer *registry.Synchronizer, metrics *Metrics) *LessonService {
	return &LessonService{
		cache:     cache,
		generator: generator,
		catalog:   catalog,
		syncer:    syncer,
		metrics:   metrics,
	}
}

// GetCachedOrGenerate returns lesson data for req, from the cache when an
// identical request was answered within the TTL, otherwise from the
// generator. Only successful generations are cached. The returned data is a
// copy carrying the request's title and subject; the second return value
// reports a cache hit.
func (s *LessonService) GetCachedOrGenerate(ctx context.Context, req models.GenerateRequest) (models.LessonData, bool, error) {
	language := utils.LanguageFor(req.Subject)
	logger := logging.WithLesson(req.Title, req.Subject, req.Session)

	if data, ok := s.cache.Get(req.Content, language, req.Subject, req.Session); ok {
		s.metrics.RecordCacheLookup(true)
		logger.Debug("lesson served from cache")
		return decorate(data, req), true, nil
	}
	s.metrics.RecordCacheLookup(false)

	key := security.Fingerprint(req.Content, language, req.Subject, req.Session)
	// shared by every caller joined on key: one caller leaving must not cancel
	// it. The generator's client timeout still bounds the call.
	shared := context.WithoutCancel(ctx)
	results := s.inflight.DoChan(key.String(), func() (interface{}, error) {
		start := time.Now()
		steps := s.catalog.StepsFor(req.Subject, req.Session)

		data, err := s.generator.Generate(shared, req, language, steps)
		s.metrics.RecordGeneration(time.Since(start).Seconds(), errorType(err))
		if err != nil {
			return nil, err
		}

		s.cache.Set(req.Content, language, req.Subject, req.Session, data)
		return data, nil
	})

	var result singleflight.Result
	select {
	case result = <-results:
	case <-ctx.Done():
		logger.Warn("caller left before lesson generation finished", "error", ctx.Err())
		return nil, false, ctx.Err()
	}
	if result.Err != nil {
		logger.Warn("lesson generation failed", "error", result.Err)
		return nil, false, result.Err
	}
	if result.Shared {
		log.Printf("🔁 [LESSON] Joined in-flight generation for %s", key.Short())
	}

	return decorate(result.Val.(models.LessonData), req), false, nil
}

// decorate copies data and injects request fields without touching the cached map
func decorate(data models.LessonData, req models.GenerateRequest) models.LessonData {
	out := data.Clone()
	out["title"] = req.Title
	out["subject"] = req.Subject
	return out
}

func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoSteps):
		return "no_steps"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrGeneratorUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// GenerateForLesson generates lesson data for a registered lesson
func (s *LessonService) GenerateForLesson(ctx context.Context, id int) (models.LessonRecord, models.LessonData, bool, error) {
	record, ok := s.syncer.Store().Find(id)
	if !ok {
		return models.LessonRecord{}, nil, false, fmt.Errorf("%w: %d", ErrLessonNotFound, id)
	}

	data, cached, err := s.GetCachedOrGenerate(ctx, models.GenerateRequest{
		LessonMetadata: record.Metadata(),
		Content:        record.Content,
	})
	return record, data, cached, err
}

// CacheStats returns the lesson cache counters
func (s *LessonService) CacheStats() lessoncache.Stats {
	return s.cache.Stats()
}

// CacheClear empties the lesson cache
func (s *LessonService) CacheClear() {
	s.cache.Clear()
}

// CacheCleanup removes expired cache entries
func (s *LessonService) CacheCleanup() int {
	return s.cache.CleanupExpired()
}

// SyncRegistry reconciles the lessons directory with the registry
func (s *LessonService) SyncRegistry() (bool, error) {
	changed, err := s.syncer.Sync()
	s.metrics.RecordSync(changed, err)
	if err != nil {
		log.Printf("❌ [LESSON] Registry sync failed: %v", err)
	}
	return changed, err
}

// ListRegistry returns every registered lesson in registry order
func (s *LessonService) ListRegistry() []models.LessonRecord {
	return s.syncer.Store().Load()
}

// LessonsDir returns the directory scanned by sync passes
func (s *LessonService) LessonsDir() string {
	return s.syncer.Dir()
}

// AcceptsSource reports whether filename has a recognized source extension
func (s *LessonService) AcceptsSource(filename string) bool {
	return s.syncer.Accepts(filename)
}
