package services

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field expressions, the same format gocron
// uses when CronJob is created without seconds
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronExpression reports whether expr is a valid five-field cron
// expression (descriptors such as @hourly are accepted too)
func ValidateCronExpression(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextCronRun returns the first activation of expr after from
func NextCronRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule.Next(from), nil
}

// SyncScheduler runs registry sync passes on a cron schedule. Passes are
// serialized by the synchronizer itself, so a scheduled pass never overlaps a
// request-triggered one.
type SyncScheduler struct {
	scheduler gocron.Scheduler
	expr      string
	sync      func() (bool, error)
}

// NewSyncScheduler creates a scheduler that calls sync on expr
func NewSyncScheduler(expr string, sync func() (bool, error)) (*SyncScheduler, error) {
	if err := ValidateCronExpression(expr); err != nil {
		return nil, err
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &SyncScheduler{scheduler: scheduler, expr: expr, sync: sync}

	_, err = scheduler.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(s.run),
		gocron.WithName("registry-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to create sync job: %w", err)
	}

	return s, nil
}

func (s *SyncScheduler) run() {
	changed, err := s.sync()
	if err != nil {
		log.Printf("❌ [SYNC-CRON] Scheduled sync failed: %v", err)
		return
	}
	if changed {
		log.Println("✅ [SYNC-CRON] Scheduled sync registered new lessons")
	}
}

// Start starts the cron scheduler
func (s *SyncScheduler) Start() {
	s.scheduler.Start()
	if next, err := NextCronRun(s.expr, time.Now()); err == nil {
		log.Printf("⏰ [SYNC-CRON] Registry resync scheduled (%s), next run at %s", s.expr, next.Format(time.RFC3339))
	}
}

// Stop shuts the cron scheduler down
func (s *SyncScheduler) Stop() error {
	log.Println("⏹️  [SYNC-CRON] Stopping registry resync")
	return s.scheduler.Shutdown()
}
