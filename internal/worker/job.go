package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/digest"
	"github.com/homescout/homescout/internal/notify"
	"github.com/homescout/homescout/internal/telemetry"
)

// ErrRunInProgress is returned when a run is triggered while another is
// still executing.
var ErrRunInProgress = errors.New("digest run already in progress")

// DigestRunner runs a digest for a search profile.
type DigestRunner interface {
	Run(ctx context.Context, profile config.Profile) (*digest.Digest, error)
}

// DigestJobConfig holds configuration for creating a DigestJob.
type DigestJobConfig struct {
	Runner   DigestRunner
	Notifier notify.Notifier
	Profile  config.Profile

	// Metrics is optional.
	Metrics *telemetry.DigestMetrics

	// Timeout bounds one run (default DefaultJobTimeout).
	Timeout time.Duration

	Logger zerolog.Logger
}

// DigestJob runs the digest and delivers it. Runs never overlap.
type DigestJob struct {
	runner   DigestRunner
	notifier notify.Notifier
	profile  config.Profile
	metrics  *telemetry.DigestMetrics
	timeout  time.Duration
	logger   zerolog.Logger

	running sync.Mutex
	stats   *JobStats
}

// JobStats tracks digest job statistics.
type JobStats struct {
	mu sync.RWMutex

	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64
	SkippedRuns    int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	LastRunID       string
	LastError       string
}

// RunResult contains the result of one digest run.
type RunResult struct {
	RunID       string
	Trigger     string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Properties  int
	Unavailable int
}

// NewDigestJob creates a digest job.
func NewDigestJob(cfg DigestJobConfig) *DigestJob {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}

	return &DigestJob{
		runner:   cfg.Runner,
		notifier: cfg.Notifier,
		profile:  cfg.Profile,
		metrics:  cfg.Metrics,
		timeout:  timeout,
		logger:   cfg.Logger,
		stats:    &JobStats{},
	}
}

// Profile returns the configured search profile.
func (j *DigestJob) Profile() config.Profile {
	return j.profile
}

// Run runs the configured profile.
func (j *DigestJob) Run(ctx context.Context, trigger string) (*RunResult, error) {
	return j.RunProfile(ctx, trigger, j.profile)
}

// RunProfile runs profile and hands the digest to the notifier. A delivery
// failure fails the run.
func (j *DigestJob) RunProfile(ctx context.Context, trigger string, profile config.Profile) (*RunResult, error) {
	if !j.running.TryLock() {
		j.stats.mu.Lock()
		j.stats.SkippedRuns++
		j.stats.mu.Unlock()

		j.logger.Warn().Str("trigger", trigger).Msg("skipping digest run, previous run still active")
		return nil, ErrRunInProgress
	}
	defer j.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result := &RunResult{Trigger: trigger, StartTime: time.Now()}

	j.logger.Info().
		Str("trigger", trigger).
		Str("area", profile.Area).
		Int("limit", profile.Limit).
		Msg("starting digest job")

	err := j.execute(ctx, profile, result)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	j.record(ctx, result, err)

	if err != nil {
		j.logger.Error().
			Err(err).
			Str("trigger", trigger).
			Str("run_id", result.RunID).
			Dur("duration", result.Duration).
			Msg("digest job failed")
		return nil, err
	}

	j.logger.Info().
		Str("trigger", trigger).
		Str("run_id", result.RunID).
		Int("properties", result.Properties).
		Int("commute_unavailable", result.Unavailable).
		Dur("duration", result.Duration).
		Msg("digest job completed")

	return result, nil
}

func (j *DigestJob) execute(ctx context.Context, profile config.Profile, result *RunResult) error {
	d, err := j.runner.Run(ctx, profile)
	if err != nil {
		return fmt.Errorf("running digest: %w", err)
	}

	result.RunID = d.RunID
	result.Properties = len(d.Properties)
	for i := range d.Properties {
		if d.Properties[i].Journey == nil {
			result.Unavailable++
		}
	}

	if j.notifier != nil {
		if err := j.notifier.Notify(ctx, d); err != nil {
			return fmt.Errorf("delivering digest: %w", err)
		}
	}
	return nil
}

func (j *DigestJob) record(ctx context.Context, result *RunResult, err error) {
	if j.metrics != nil {
		j.metrics.RecordRun(context.WithoutCancel(ctx), result.Trigger, result.Duration, result.Properties, result.Unavailable, err)
	}

	j.stats.mu.Lock()
	defer j.stats.mu.Unlock()

	j.stats.TotalRuns++
	j.stats.LastRunAt = result.EndTime
	j.stats.LastRunDuration = result.Duration
	j.stats.LastRunID = result.RunID
	if err != nil {
		j.stats.FailedRuns++
		j.stats.LastError = err.Error()
	} else {
		j.stats.SuccessfulRuns++
		j.stats.LastError = ""
	}
}

// GetStats returns a copy of the current statistics.
func (j *DigestJob) GetStats() JobStats {
	j.stats.mu.RLock()
	defer j.stats.mu.RUnlock()

	return JobStats{
		TotalRuns:       j.stats.TotalRuns,
		SuccessfulRuns:  j.stats.SuccessfulRuns,
		FailedRuns:      j.stats.FailedRuns,
		SkippedRuns:     j.stats.SkippedRuns,
		LastRunAt:       j.stats.LastRunAt,
		LastRunDuration: j.stats.LastRunDuration,
		LastRunID:       j.stats.LastRunID,
		LastError:       j.stats.LastError,
	}
}

// StatsSnapshot returns the statistics as a map, for the health endpoint.
func (j *DigestJob) StatsSnapshot() map[string]interface{} {
	s := j.GetStats()
	return map[string]interface{}{
		"total_runs":        s.TotalRuns,
		"successful_runs":   s.SuccessfulRuns,
		"failed_runs":       s.FailedRuns,
		"skipped_runs":      s.SkippedRuns,
		"last_run_at":       s.LastRunAt,
		"last_run_duration": s.LastRunDuration.String(),
		"last_run_id":       s.LastRunID,
		"last_error":        s.LastError,
	}
}
