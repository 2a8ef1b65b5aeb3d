package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HyperBlockHQ/guildpulse/config"
)

var ErrJobNotFound = errors.New("job not found")

// RunFunc is one runnable analytics pass. It returns the number of guilds
// updated.
type RunFunc func(ctx context.Context) (int, error)

// Job is a registered schedule entry. nextRun is recomputed after every
// run; reads go through the scheduler mutex.
type Job struct {
	ID      string
	Name    string
	trigger string
	run     RunFunc

	interval time.Duration // zero for daily jobs
	atHour   int
	atMinute int
	nextRun  time.Time
}

// JobStatus is the read-only view of one job.
type JobStatus struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	NextRun string `json:"next_run"`
	Trigger string `json:"trigger"`
}

// Status is the read-only view of the scheduler.
type Status struct {
	Status string      `json:"status"`
	Jobs   []JobStatus `json:"jobs"`
}

// Scheduler drives the periodic analytics passes. One goroutine per job
// sleeps until the job's next run time, fires it, and reschedules.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []*Job
	running bool
	quit    chan struct{}
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// New builds a scheduler with the daily analytics job and, when configured,
// an additional fixed-interval job.
func New(cfg config.SchedulerConfig, run RunFunc, logger *zap.Logger) *Scheduler {
	s := &Scheduler{logger: logger}

	s.jobs = append(s.jobs, &Job{
		ID:       "daily_guild_analytics",
		Name:     "update_guild_analytics",
		trigger:  fmt.Sprintf("cron[hour=%d, minute=%d]", cfg.DailyHour, cfg.DailyMinute),
		run:      run,
		atHour:   cfg.DailyHour,
		atMinute: cfg.DailyMinute,
	})

	if cfg.IntervalMinutes > 0 {
		interval := time.Duration(cfg.IntervalMinutes) * time.Minute
		s.jobs = append(s.jobs, &Job{
			ID:       "interval_guild_analytics",
			Name:     "update_guild_analytics",
			trigger:  fmt.Sprintf("interval[minutes=%d]", cfg.IntervalMinutes),
			run:      run,
			interval: interval,
		})
	}
	return s
}

// Start launches the job goroutines. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.quit = make(chan struct{})

	now := time.Now()
	for _, job := range s.jobs {
		job.nextRun = nextRunTime(job, now)
		s.wg.Add(1)
		go s.runLoop(job)
		s.logger.Info("scheduled job",
			zap.String("job_id", job.ID),
			zap.String("trigger", job.trigger),
			zap.Time("next_run", job.nextRun))
	}
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop shuts the scheduler down and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.quit)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runLoop(job *Job) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		next := job.nextRun
		quit := s.quit
		s.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			s.fire(job)
			s.mu.Lock()
			job.nextRun = nextRunTime(job, time.Now())
			s.mu.Unlock()
		case <-quit:
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) fire(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked",
				zap.String("job_id", job.ID), zap.Any("panic", r))
		}
	}()

	s.logger.Info("running scheduled job", zap.String("job_id", job.ID))
	count, err := job.run(context.Background())
	if err != nil {
		s.logger.Error("scheduled job failed",
			zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	s.logger.Info("scheduled job completed",
		zap.String("job_id", job.ID), zap.Int("guilds_updated", count))
}

// TriggerJob fires a job by id outside its schedule. The run happens in the
// caller's goroutine.
func (s *Scheduler) TriggerJob(ctx context.Context, jobID string) (int, error) {
	s.mu.Lock()
	var target *Job
	for _, job := range s.jobs {
		if job.ID == jobID {
			target = job
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return 0, ErrJobNotFound
	}
	return target.run(ctx)
}

// GetStatus reports the scheduler state and its jobs. A nil scheduler
// reports not_initialized.
func (s *Scheduler) GetStatus() Status {
	if s == nil {
		return Status{Status: "not_initialized", Jobs: []JobStatus{}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := "stopped"
	if s.running {
		state = "running"
	}

	jobs := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		nextRun := ""
		if s.running {
			nextRun = job.nextRun.Format(time.RFC3339)
		}
		jobs = append(jobs, JobStatus{
			ID:      job.ID,
			Name:    job.Name,
			NextRun: nextRun,
			Trigger: job.trigger,
		})
	}
	return Status{Status: state, Jobs: jobs}
}

// nextRunTime computes when a job should fire next: now + interval for
// interval jobs, the next hh:mm occurrence for daily jobs.
func nextRunTime(job *Job, now time.Time) time.Time {
	if job.interval > 0 {
		return now.Add(job.interval)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), job.atHour, job.atMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
