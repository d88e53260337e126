package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/planc/f1-data-sync/pkg/logger"
)

type scheduledJob struct {
	job      Job
	schedule cron.Schedule
	next     time.Time
}

// PollingJobManager runs registered jobs from a single goroutine. It wakes up
// every poll interval and runs whatever is due; a time that passed while the
// process was busy or asleep fires once on the next poll, never more.
type PollingJobManager struct {
	clock        Clock
	pollInterval time.Duration
	jobs         []*scheduledJob
	logger       *logger.Logger
}

// NewJobManager creates a new job manager
func NewJobManager(clock Clock, pollInterval time.Duration) *PollingJobManager {
	if clock == nil {
		clock = RealClock()
	}
	return &PollingJobManager{
		clock:        clock,
		pollInterval: pollInterval,
		jobs:         make([]*scheduledJob, 0),
		logger:       logger.New("job-manager"),
	}
}

func (m *PollingJobManager) RegisterJob(job Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	schedule, err := cron.ParseStandard(job.Schedule())
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}

	m.logger.Info().
		Str("action", "register_job").
		Str("job_name", job.Name()).
		Str("schedule", job.Schedule()).
		Msg("Registering job")

	m.jobs = append(m.jobs, &scheduledJob{job: job, schedule: schedule})
	return nil
}

// Run executes every job immediately, then polls until ctx is cancelled.
// Job errors are logged and never stop the loop.
func (m *PollingJobManager) Run(ctx context.Context) error {
	m.logger.Info().
		Int("jobs", len(m.jobs)).
		Dur("poll_interval", m.pollInterval).
		Msg("Starting job manager")

	for _, sj := range m.jobs {
		m.execute(ctx, sj)
	}

	for {
		if err := m.clock.Sleep(ctx, m.pollInterval); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				m.logger.Info().Msg("Job manager stopped")
				return nil
			}
			return err
		}
		m.RunPending(ctx)
	}
}

// RunPending executes every job whose next run time has been reached
func (m *PollingJobManager) RunPending(ctx context.Context) int {
	ran := 0
	for _, sj := range m.jobs {
		if ctx.Err() != nil {
			return ran
		}
		if !m.clock.Now().Before(sj.next) {
			m.execute(ctx, sj)
			ran++
		}
	}
	return ran
}

// NextRun returns when the named job is due next
func (m *PollingJobManager) NextRun(name string) (time.Time, bool) {
	for _, sj := range m.jobs {
		if sj.job.Name() == name {
			return sj.next, true
		}
	}
	return time.Time{}, false
}

func (m *PollingJobManager) execute(ctx context.Context, sj *scheduledJob) {
	job := sj.job
	jobLogger := m.logger.WithJob(job.Name())
	jobLogger.LogJobStart(job.Name(), job.Schedule())

	start := m.clock.Now()
	if err := job.Execute(jobLogger.ToContext(ctx)); err != nil {
		jobLogger.Error().
			Err(err).
			Str("action", "job_failed").
			Dur("duration", m.clock.Now().Sub(start)).
			Msg("Job execution failed")
	} else {
		jobLogger.Info().
			Str("action", "job_finished").
			Dur("duration", m.clock.Now().Sub(start)).
			Msg("Job finished")
	}

	// the next run is measured from when this one finished
	sj.next = sj.schedule.Next(m.clock.Now())
	jobLogger.Debug().
		Time("next_run", sj.next).
		Msg("Job rescheduled")
}

func (m *PollingJobManager) GetJobs() []Job {
	jobs := make([]Job, 0, len(m.jobs))
	for _, sj := range m.jobs {
		jobs = append(jobs, sj.job)
	}
	return jobs
}
