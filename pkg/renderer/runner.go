package renderer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/df07/go-mlt/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TaskMonitor observes task progress. Returning false cancels that task, which
// the job then re-queues; the render as a whole carries on.
type TaskMonitor func(task *Task, done, total int) bool

// Runner drives a Job with a pool of workers. Job bookkeeping runs under one
// mutex; PerformTask runs outside it, so tasks execute in parallel and may
// finish in any order.
type Runner struct {
	job        Job
	numWorkers int
	logger     core.Logger
	monitor    TaskMonitor
}

// NewRunner creates a runner; numWorkers <= 0 uses one worker per CPU
func NewRunner(job Job, numWorkers int, logger core.Logger) *Runner {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Runner{job: job, numWorkers: numWorkers, logger: orDiscard(logger)}
}

// SetMonitor installs a progress observer
func (r *Runner) SetMonitor(monitor TaskMonitor) {
	r.monitor = monitor
}

// GetNumWorkers returns the number of workers in the pool
func (r *Runner) GetNumWorkers() int {
	return r.numWorkers
}

// runState is the bookkeeping shared by the workers of one Run
type runState struct {
	mu       sync.Mutex
	cond     *sync.Cond
	inFlight int
	err      error
	stats    RenderStats
}

func (s *runState) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Run executes the job until it completes, a task fails or ctx is cancelled
func (r *Runner) Run(ctx context.Context) (RenderStats, error) {
	s := &runState{stats: RenderStats{Workers: r.numWorkers}}
	s.cond = sync.NewCond(&s.mu)

	// Wake idle workers so they notice cancellation
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cond.Broadcast()
	})
	defer stop()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < r.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(ctx, s)
		}()
	}
	wg.Wait()

	s.stats.Duration = time.Since(start)
	if s.err != nil {
		return s.stats, s.err
	}
	if !r.job.IsComplete() {
		if err := ctx.Err(); err != nil {
			return s.stats, err
		}
		return s.stats, ErrStalled
	}
	return s.stats, nil
}

func (r *Runner) work(ctx context.Context, s *runState) {
	for {
		s.mu.Lock()
		task := r.acquire(ctx, s)
		s.mu.Unlock()
		if task == nil {
			return
		}

		result, err := r.perform(ctx, task)

		s.mu.Lock()
		r.release(s, task, result, err)
		s.mu.Unlock()
	}
}

// acquire waits for a runnable task; it returns nil when the worker should exit
func (r *Runner) acquire(ctx context.Context, s *runState) *Task {
	for {
		if s.err != nil || ctx.Err() != nil || r.job.IsComplete() {
			return nil
		}
		if task := r.job.NextTask(); task != nil {
			s.inFlight++
			tasksDispatched.WithLabelValues(task.Kind.String()).Inc()
			return task
		}
		if s.inFlight == 0 {
			s.fail(ErrStalled)
			s.cond.Broadcast()
			return nil
		}
		s.cond.Wait()
	}
}

func (r *Runner) release(s *runState, task *Task, result *TaskResult, err error) {
	s.inFlight--
	defer s.cond.Broadcast()

	kind := task.Kind.String()
	switch {
	case errors.Is(err, ErrTaskCancelled):
		s.stats.TasksCancelled++
		tasksCancelled.WithLabelValues(kind).Inc()
		r.logger.Printf("Task %d (%s) cancelled, re-queueing %d samples\n", task.ID, kind, task.Budget)
		if subErr := r.job.SubmitTaskResults(task, nil); subErr != nil {
			s.fail(r.rejected(task, subErr))
		}
	case err != nil:
		s.fail(fmt.Errorf("task %d (%s): %w", task.ID, kind, err))
	default:
		if subErr := r.job.SubmitTaskResults(task, result); subErr != nil {
			s.fail(r.rejected(task, subErr))
			return
		}
		s.stats.TasksCompleted++
		s.stats.Samples += result.Samples
		tasksCompleted.WithLabelValues(kind).Inc()
		samplesMerged.WithLabelValues(kind).Add(float64(result.Samples))
	}
}

func (r *Runner) rejected(task *Task, err error) error {
	reason := "malformed"
	if errors.Is(err, ErrUnknownTask) {
		reason = "unknown"
	}
	tasksRejected.WithLabelValues(reason).Inc()
	return fmt.Errorf("submitting task %d (%s): %w", task.ID, task.Kind, err)
}

// perform runs one task inside a span, outside the bookkeeping lock
func (r *Runner) perform(ctx context.Context, task *Task) (*TaskResult, error) {
	ctx, span := otel.Tracer("mlt").Start(ctx, "renderer.Runner.PerformTask",
		trace.WithAttributes(
			attribute.Int("task_id", task.ID),
			attribute.String("task_kind", task.Kind.String()),
			attribute.Int("task_budget", task.Budget),
		),
	)
	defer span.End()

	progress := func(done, total int) bool {
		if ctx.Err() != nil {
			return false
		}
		return r.monitor == nil || r.monitor(task, done, total)
	}

	start := time.Now()
	result, err := r.job.PerformTask(ctx, task, progress)
	taskDuration.WithLabelValues(task.Kind.String()).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrTaskCancelled):
		span.AddEvent("cancelled")
		span.SetStatus(codes.Error, "task cancelled")
		return nil, err
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "task failed")
		return nil, err
	case result == nil:
		err = fmt.Errorf("%w: task %d returned no result", ErrMalformedTask, task.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing result")
		return nil, err
	}

	span.SetAttributes(attribute.Int("samples", result.Samples))
	span.SetStatus(codes.Ok, "task complete")
	return result, nil
}
