// Package jobs runs background maintenance tasks on cron schedules.
package jobs

import "context"

// Job is one background task.
type Job interface {
	// GetName identifies the job in logs and on-demand runs.
	GetName() string

	// GetSchedule returns a cron spec such as "0 3 * * *", or "" for on-demand only.
	GetSchedule() string

	Execute(ctx context.Context) error
}
