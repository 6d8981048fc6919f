package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"hpic-membership/internal/domain"
)

func currentMonth() domain.Month { return domain.MonthOf(time.Now()) }

// Scheduler triggers a pipeline run on a cron schedule. Each tick publishes
// the timeline as of the current month.
type Scheduler struct {
	cron     *cron.Cron
	svc      *Service
	schedule string
	logger   *slog.Logger
	now      func() domain.Month // injected for tests
}

// NewScheduler creates a scheduler running svc on the given cron expression.
func NewScheduler(svc *Service, schedule string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		svc:      svc,
		schedule: schedule,
		logger:   logger,
		now:      currentMonth,
	}
}

// Start validates the schedule and begins ticking. Runs happen in the cron
// goroutine; failures are logged and recorded in run history, never fatal to
// the scheduler.
func (s *Scheduler) Start() error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx := context.Background()
		asOf := s.now()
		if _, err := s.svc.Run(ctx, domain.TriggerTypeScheduled, asOf); err != nil {
			s.logger.Warn("scheduled run failed", "as_of", asOf.String(), "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
