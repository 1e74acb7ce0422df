package temporal

import (
	"context"
	"time"
)

// Scheduler manages the Temporal schedule driving the burn tracker.
// The schedule triggers TrackBurnsWorkflow at a fixed interval and keeps
// runs serialized via its overlap policy.
type Scheduler interface {
	// CreateTrackSchedule creates the schedule for a token's burn tracking.
	CreateTrackSchedule(ctx context.Context, wallet, token string, interval time.Duration) error

	// UpsertTrackSchedule creates the schedule or updates its interval if it
	// already exists.
	UpsertTrackSchedule(ctx context.Context, wallet, token string, interval time.Duration) error

	// PauseTrackSchedule pauses the schedule without deleting it.
	PauseTrackSchedule(ctx context.Context, token string) error

	// ResumeTrackSchedule resumes a paused schedule.
	ResumeTrackSchedule(ctx context.Context, token string) error

	// DeleteTrackSchedule deletes the schedule, stopping all tracking runs.
	DeleteTrackSchedule(ctx context.Context, token string) error

	// TriggerTrackRun requests an immediate run outside the interval.
	TriggerTrackRun(ctx context.Context, token string) error
}

// scheduleID returns the Temporal schedule ID for a token's burn tracking.
func scheduleID(token string) string {
	return "track-burns-" + token
}
