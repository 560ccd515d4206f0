package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Runner runs the configured digest once.
type Runner interface {
	Run(ctx context.Context, trigger string) (*RunResult, error)
}

// Scheduler runs a job on a fixed interval until its context is cancelled.
type Scheduler struct {
	job    Runner
	cfg    ScheduleConfig
	logger zerolog.Logger
}

// NewScheduler creates a scheduler for job.
func NewScheduler(job Runner, cfg ScheduleConfig, logger zerolog.Logger) *Scheduler {
	return &Scheduler{job: job, cfg: cfg, logger: logger}
}

// Start blocks until ctx is done. With a zero interval only the startup run
// (if enabled) happens.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cfg.RunOnStart {
		s.run(ctx, TriggerStartup)
	}

	if s.cfg.Interval <= 0 {
		s.logger.Info().Msg("digest schedule disabled")
		<-ctx.Done()
		return
	}

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("starting digest schedule")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("digest schedule stopped")
			return
		case <-ticker.C:
			s.run(ctx, TriggerSchedule)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, trigger string) {
	// Failures are logged by the job; the schedule keeps going.
	if _, err := s.job.Run(ctx, trigger); err != nil && !errors.Is(err, ErrRunInProgress) {
		s.logger.Debug().Err(err).Str("trigger", trigger).Msg("scheduled run failed")
	}
}
