package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when registering jobs after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrInvalidSchedule is returned for cron specs that cannot be parsed
	ErrInvalidSchedule = errors.New("invalid cron schedule")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job already registered")
)
