package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/festplan/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// refreshTimeout bounds one availability refresh run
const refreshTimeout = 10 * time.Minute

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron            *cron.Cron
	planner         *controllers.Planner
	refreshSchedule string
	logger          *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(planner *controllers.Planner, refreshSchedule string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		planner:         planner,
		refreshSchedule: refreshSchedule,
		logger:          logger,
	}
}

// Start starts the scheduler. An empty schedule disables the refresh job.
func (s *Scheduler) Start() error {
	if s.refreshSchedule == "" {
		s.logger.Info("Availability refresh disabled")
		return nil
	}

	s.logger.WithField("schedule", s.refreshSchedule).Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.refreshSchedule, func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to add availability refresh job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// runRefresh executes the availability refresh job
func (s *Scheduler) runRefresh() {
	s.logger.Info("Running scheduled availability refresh")
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	report, err := s.planner.RefreshAvailability(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Availability refresh job failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"checked":        report.Checked,
		"nowUnavailable": len(report.NowUnavailable),
	}).Info("Availability refresh job completed successfully")
}
