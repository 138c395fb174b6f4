package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"fxdesk/pkg/logger"
)

// Job is a named periodic task
type Job struct {
	Name string
	// Spec is a six-field cron expression (with seconds)
	Spec    string
	Timeout time.Duration
	// When, if set, gates each run; the job is skipped when it returns false
	When func(time.Time) bool
	Run  func(ctx context.Context) error
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
	now  func() time.Time
}

// NewScheduler creates a new scheduler. Runs of the same job never overlap.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log: logger.Get().With("component", "scheduler"),
		now: time.Now,
	}
}

// Add registers a job
func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %s has no Run func", job.Name)
	}
	if _, err := s.cron.AddFunc(job.Spec, s.wrap(job)); err != nil {
		return fmt.Errorf("failed to schedule %s (%s): %w", job.Name, job.Spec, err)
	}
	s.log.Infof("Scheduled %s [%s]", job.Name, job.Spec)
	return nil
}

func (s *Scheduler) wrap(job Job) func() {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	return func() {
		if job.When != nil && !job.When(s.now()) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := s.now()
		if err := job.Run(ctx); err != nil {
			s.log.Errorf("[CRON] %s failed after %s: %v", job.Name, time.Since(start).Round(time.Millisecond), err)
			return
		}
		s.log.Debugf("[CRON] %s done in %s", job.Name, time.Since(start).Round(time.Millisecond))
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("[OK] Scheduler started with %d jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.log.Infof("Stopping scheduler...")
	<-s.cron.Stop().Done()
	s.log.Infof("[OK] Scheduler stopped")
}
