package renderer

import (
	"fmt"
	"time"
)

// RenderStats contains statistics about a finished or interrupted run
type RenderStats struct {
	Workers        int           // Number of workers in the pool
	TasksCompleted int           // Task results merged into the job
	TasksCancelled int           // Tasks stopped early and re-queued
	Samples        int           // Passes, phase-1 samples and mutations merged
	Duration       time.Duration // Wall time of the run
}

// SamplesPerSecond returns the merged sample throughput
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Samples) / s.Duration.Seconds()
}

func (s RenderStats) String() string {
	return fmt.Sprintf("%d tasks (%d cancelled) on %d workers, %d samples in %v",
		s.TasksCompleted, s.TasksCancelled, s.Workers, s.Samples, s.Duration.Round(time.Millisecond))
}
