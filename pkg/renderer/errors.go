package renderer

import "errors"

var (
	// ErrTaskCancelled is returned by PerformTask when its progress callback asks it to stop
	ErrTaskCancelled = errors.New("task cancelled")
	// ErrUnknownTask is returned when a result arrives for a task that is not outstanding
	ErrUnknownTask = errors.New("unknown or already completed task")
	// ErrMalformedTask is returned for tasks or results the job cannot interpret
	ErrMalformedTask = errors.New("malformed task")
	// ErrInvalidConfig is returned for unusable job settings
	ErrInvalidConfig = errors.New("invalid render configuration")
	// ErrStalled is returned when a job has no task to hand out and none in flight
	ErrStalled = errors.New("job stalled with no runnable tasks")
)
