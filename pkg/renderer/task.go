package renderer

import (
	"context"
	"fmt"
	"slices"

	"github.com/df07/go-mlt/pkg/metropolis"
)

// TaskKind tags what a task computes
type TaskKind int

const (
	RenderTask   TaskKind = iota // Direct bidirectional passes over the whole image
	SeedTask                     // Phase 1 of a Metropolis job: candidate pool sampling
	MutationTask                 // Phase 2 of a Metropolis job: chains started from resampled seeds
)

func (k TaskKind) String() string {
	switch k {
	case RenderTask:
		return "render"
	case SeedTask:
		return "seed"
	case MutationTask:
		return "mutation"
	default:
		return "unknown"
	}
}

// Task is a unit of work handed to a worker. A task is self-contained: running
// it twice produces the same result.
type Task struct {
	ID     int
	Kind   TaskKind
	Budget int   // Passes, phase-1 samples or mutations
	Seed   int64 // Base seed of the task's private generators
	Offset int   // Index of the first phase-1 sample (seed tasks)

	Seeds         []metropolis.PathSeed // Chains to run (mutation tasks)
	ChainBudgets  []int                 // Mutations per chain (mutation tasks)
	Normalization float64               // Mean phase-1 weight b̂ (mutation tasks)
}

// TaskResult is what a finished task hands back
type TaskResult struct {
	Raster  *Raster // Full-resolution image normalized by Samples; nil for seed tasks
	Samples int     // Budget actually consumed

	Candidates  []metropolis.Candidate // Seed tasks only
	TotalWeight float64                // Seed tasks only
}

// ProgressFunc is polled by running tasks with the work done so far. Returning
// false asks the task to stop; it then returns ErrTaskCancelled and no result.
type ProgressFunc func(done, total int) bool

// Job is a render split into independent tasks. Its methods other than
// PerformTask are not safe for concurrent use; the Runner serializes them.
type Job interface {
	// NextTask returns the next task to run, or nil if none is ready yet
	NextTask() *Task
	// PerformTask runs a task. It may be called concurrently for different tasks.
	PerformTask(ctx context.Context, task *Task, progress ProgressFunc) (*TaskResult, error)
	// SubmitTaskResults merges a result. A nil result re-queues the task's budget.
	SubmitTaskResults(task *Task, result *TaskResult) error
	// IsComplete reports whether every task has been merged
	IsComplete() bool
}

// SplitBudget divides budget into n near-equal parts: the first budget mod n
// parts get one more than the rest.
func SplitBudget(budget, n int) []int {
	if n <= 0 {
		return nil
	}
	parts := make([]int, n)
	base, extra := budget/n, budget%n
	for i := range parts {
		parts[i] = base
		if i < extra {
			parts[i]++
		}
	}
	return parts
}

// cancelled polls progress, treating a nil callback as never cancelling
func cancelled(progress ProgressFunc, done, total int) bool {
	return progress != nil && !progress(done, total)
}

// queue tracks the tasks of one phase: pending, outstanding and merged
type queue struct {
	nextID      int
	pending     []*Task
	outstanding map[int]*Task
	completed   int
	total       int
}

func newQueue(firstID int) *queue {
	return &queue{nextID: firstID, outstanding: make(map[int]*Task)}
}

func (q *queue) add(t *Task) {
	t.ID = q.nextID
	q.nextID++
	q.pending = append(q.pending, t)
	q.total++
}

func (q *queue) next() *Task {
	if len(q.pending) == 0 {
		return nil
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	dispatched := *t
	q.outstanding[t.ID] = &dispatched
	return t
}

// has reports whether a task with this ID is outstanding in this queue
func (q *queue) has(t *Task) bool {
	_, ok := q.outstanding[t.ID]
	return ok
}

// claim returns the queue's copy of an outstanding task. A submission whose
// work differs from what was dispatched is malformed.
func (q *queue) claim(t *Task) (*Task, error) {
	d, ok := q.outstanding[t.ID]
	if !ok {
		return nil, fmt.Errorf("%w: task %d", ErrUnknownTask, t.ID)
	}
	if t.Kind != d.Kind || t.Budget != d.Budget || t.Seed != d.Seed || t.Offset != d.Offset ||
		t.Normalization != d.Normalization || len(t.Seeds) != len(d.Seeds) ||
		!slices.Equal(t.ChainBudgets, d.ChainBudgets) {
		return nil, fmt.Errorf("%w: task %d differs from the dispatched task", ErrMalformedTask, t.ID)
	}
	return d, nil
}

// finish retires an outstanding task whose result was merged
func (q *queue) finish(t *Task) {
	delete(q.outstanding, t.ID)
	q.completed++
}

// requeue retires a cancelled task and re-issues its budget under a fresh ID
func (q *queue) requeue(t *Task) {
	delete(q.outstanding, t.ID)
	again := *t
	again.ID = q.nextID
	q.nextID++
	q.pending = append(q.pending, &again)
}

func (q *queue) done() bool {
	return q.total > 0 && q.completed == q.total
}
