// Package scheduler runs periodic rating refreshes on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher rebuilds ratings from the current game history
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler manages scheduled rating refresh jobs
type Scheduler struct {
	cron       *cron.Cron
	refresher  Refresher
	log        *logrus.Entry
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
	jobTimeout time.Duration
	lastErr    error
	lastRun    time.Time

	// runCtx is cancelled by Stop so in-flight refreshes abort
	runCtx    context.Context
	cancelRun context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler(refresher Refresher, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runCtx:     runCtx,
		cancelRun:  cancel,
		cron:       cron.New(cron.WithLocation(time.UTC)),
		refresher:  refresher,
		log:        logger.WithField("component", "scheduler"),
		jobIDs:     make([]cron.EntryID, 0),
		jobTimeout: 30 * time.Minute,
	}
}

// ScheduleRefresh schedules a rating refresh using a cron expression or a
// descriptor such as "@every 1h"
func (s *Scheduler) ScheduleRefresh(cronExpression string) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return 0, fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		s.mu.RLock()
		parent := s.runCtx
		s.mu.RUnlock()
		ctx, cancel := context.WithTimeout(parent, s.jobTimeout)
		defer cancel()
		_ = s.RunNow(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.log.WithField("schedule", cronExpression).Info("Scheduled rating refresh")
	return entryID, nil
}

// RunNow refreshes immediately and records the outcome
func (s *Scheduler) RunNow(ctx context.Context) error {
	start := time.Now()
	err := s.refresher.Refresh(ctx)

	s.mu.Lock()
	s.lastRun = start
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("Rating refresh failed")
		return err
	}
	s.log.WithField("duration", time.Since(start).String()).Debug("Rating refresh completed")
	return nil
}

// LastRun returns when the last refresh started and how it ended
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	if s.runCtx.Err() != nil {
		s.runCtx, s.cancelRun = context.WithCancel(context.Background())
	}
	s.cron.Start()
	s.isRunning = true
	s.log.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop cancels any running refresh and waits for it to return, up to the
// job timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	done := s.cron.Stop().Done()
	s.cancelRun()
	s.isRunning = false
	// running jobs record their outcome under mu
	s.mu.Unlock()

	select {
	case <-done:
		s.log.Info("Scheduler stopped")
		return nil
	case <-time.After(s.jobTimeout):
		return fmt.Errorf("timed out waiting for running jobs")
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}
	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}
	return entries
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(jobID cron.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}

	s.cron.Remove(jobID)
	for i, id := range s.jobIDs {
		if id == jobID {
			s.jobIDs = append(s.jobIDs[:i], s.jobIDs[i+1:]...)
			break
		}
	}
	s.log.WithField("job_id", jobID).Info("Removed job")
	return nil
}
