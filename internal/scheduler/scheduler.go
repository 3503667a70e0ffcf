// Package scheduler drives the service's background maintenance on cron
// schedules with second granularity.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of background maintenance work
type Job interface {
	Run() error
	Name() string
}

// Scheduler runs registered jobs on their cron schedules
type Scheduler struct {
	cron *cron.Cron
	jobs []string
	log  zerolog.Logger
}

// New creates an empty scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// AddJob registers a job on a six-field cron schedule, e.g. "0 30 3 * * *"
// for 03:30 daily. Job failures are logged, never fatal.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	jobLog := s.log.With().Str("job", job.Name()).Logger()

	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(); err != nil {
			jobLog.Error().Err(err).Msg("Job failed")
			return
		}
		jobLog.Debug().Msg("Job completed")
	})
	if err != nil {
		return err
	}

	s.jobs = append(s.jobs, job.Name())
	jobLog.Info().Str("schedule", schedule).Msg("Job registered")
	return nil
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// Start begins schedule evaluation
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop halts scheduling and waits for in-flight jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}
