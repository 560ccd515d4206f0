// Package worker runs homescout digests in the background, on a schedule or
// when a Pub/Sub trigger message arrives.
package worker

import "time"

// Triggers label what started a run in logs and metrics.
const (
	TriggerSchedule = "schedule"
	TriggerPubSub   = "pubsub"
	TriggerStartup  = "startup"
)

// Job types accepted on the trigger subscription.
const (
	JobTypeDigestRun   = "digest_run"
	JobTypeHealthCheck = "health_check"
)

// DefaultJobTimeout bounds one digest run including delivery.
const DefaultJobTimeout = 10 * time.Minute

// ScheduleConfig controls scheduled runs.
type ScheduleConfig struct {
	// Interval between runs. Zero disables the schedule.
	Interval time.Duration

	// RunOnStart triggers one run immediately.
	RunOnStart bool
}
