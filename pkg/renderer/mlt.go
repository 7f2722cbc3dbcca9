package renderer

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/integrator"
	"github.com/df07/go-mlt/pkg/metropolis"
)

// MetropolisConfig contains configuration for Metropolis rendering
type MetropolisConfig struct {
	Width          int // Image width in pixels
	Height         int // Image height in pixels
	InitialSamples int // Phase-1 paths traced to build the seed pool
	SeedTasks      int // Tasks phase 1 is split into
	NumSeeds       int // Chains started from the resampled pool
	Mutations      int // Total mutations over all chains
	MutationTasks  int // Tasks the chains are split into

	Chain     metropolis.ChainConfig
	Heuristic integrator.Heuristic
	PathInfo  integrator.PathInfo
	Mode      AccumulationMode
	Seed      int64
}

// DefaultMetropolisConfig returns sensible default values
func DefaultMetropolisConfig() MetropolisConfig {
	return MetropolisConfig{
		Width:          400,
		Height:         400,
		InitialSamples: 100000,
		SeedTasks:      8,
		NumSeeds:       512,
		Mutations:      400 * 400 * 16,
		MutationTasks:  32,
		Chain:          metropolis.DefaultChainConfig(),
		Heuristic:      integrator.PowerHeuristic,
		PathInfo:       integrator.DefaultPathInfo(),
		Mode:           Blend,
		Seed:           1,
	}
}

// Validate checks the configuration
func (c MetropolisConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.InitialSamples <= 0 || c.SeedTasks <= 0 {
		return fmt.Errorf("%w: %d initial samples in %d tasks", ErrInvalidConfig, c.InitialSamples, c.SeedTasks)
	}
	if c.NumSeeds <= 0 || c.Mutations <= 0 || c.MutationTasks <= 0 {
		return fmt.Errorf("%w: %d seeds, %d mutations in %d tasks must be positive",
			ErrInvalidConfig, c.NumSeeds, c.Mutations, c.MutationTasks)
	}
	if err := c.Chain.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.PathInfo.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// seedResult is a merged phase-1 task, kept until the barrier
type seedResult struct {
	offset     int
	candidates []metropolis.Candidate
	weight     float64
}

// MetropolisJob renders in two phases. Seed tasks sample a pool of candidate
// paths; once all of them are merged the pool is resampled into chain seeds and
// mutation tasks run the chains.
type MetropolisJob struct {
	scene      core.Scene
	config     MetropolisConfig
	colorModel core.ColorModel
	display    Display
	logger     core.Logger

	seeds       *queue
	seedResults []seedResult

	mutations     *queue
	normalization float64 // b̂, mean phase-1 weight per sample
	complete      bool

	acc *Accumulator
}

// NewMetropolisJob creates the job and queues phase 1
func NewMetropolisJob(scene core.Scene, config MetropolisConfig, display Display, logger core.Logger) (*MetropolisJob, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	j := &MetropolisJob{
		scene:      scene,
		config:     config,
		colorModel: core.RGBColorModel{},
		display:    display,
		logger:     orDiscard(logger),
		seeds:      newQueue(0),
		acc:        NewAccumulator(config.Mode, config.Width, config.Height),
	}

	offset := 0
	for _, n := range SplitBudget(config.InitialSamples, config.SeedTasks) {
		if n == 0 {
			continue
		}
		j.seeds.add(&Task{Kind: SeedTask, Budget: n, Seed: config.Seed, Offset: offset})
		offset += n
	}

	if display != nil {
		display.Initialize(config.Width, config.Height, j.colorModel)
	}
	j.logger.Printf("Metropolis phase 1: %d initial samples in %d seed tasks\n", config.InitialSamples, j.seeds.total)
	return j, nil
}

// NextTask hands out seed tasks, then mutation tasks once the pool is complete.
// Between the two phases it returns nil.
func (j *MetropolisJob) NextTask() *Task {
	if j.mutations == nil {
		return j.seeds.next()
	}
	return j.mutations.next()
}

// IsComplete reports whether every mutation task has been merged
func (j *MetropolisJob) IsComplete() bool {
	return j.complete
}

// Normalization returns b̂, the mean phase-1 weight per sample, once phase 1 is done
func (j *MetropolisJob) Normalization() float64 {
	return j.normalization
}

// Image returns the current accumulated raster
func (j *MetropolisJob) Image() *Raster {
	return j.acc.Raster()
}

// PerformTask runs a seed or mutation task
func (j *MetropolisJob) PerformTask(ctx context.Context, task *Task, progress ProgressFunc) (*TaskResult, error) {
	if task == nil || task.Budget <= 0 {
		return nil, fmt.Errorf("%w: metropolis job cannot run %v", ErrMalformedTask, task)
	}
	switch task.Kind {
	case SeedTask:
		return j.performSeeds(task, progress)
	case MutationTask:
		return j.performMutations(task, progress)
	default:
		return nil, fmt.Errorf("%w: metropolis job cannot run %s tasks", ErrMalformedTask, task.Kind)
	}
}

func (j *MetropolisJob) newTaskContext(seed int64) *taskContext {
	return newTaskContext(j.scene, j.config.PathInfo, j.config.Heuristic, j.colorModel, j.config.Width, j.config.Height, seed)
}

func (j *MetropolisJob) performSeeds(task *Task, progress ProgressFunc) (*TaskResult, error) {
	tc := j.newTaskContext(task.Seed)
	generator := metropolis.NewSeedGenerator(tc.generator, tc.joiner)

	var candidates []metropolis.Candidate
	total := 0.0
	for i := 0; i < task.Budget; i++ {
		if i%64 == 0 && cancelled(progress, i, task.Budget) {
			return nil, ErrTaskCancelled
		}
		var w float64
		var err error
		candidates, w, err = generator.Sample(metropolis.SampleSeed(task.Seed, task.Offset+i), candidates)
		if err != nil {
			return nil, err
		}
		total += w
	}
	return &TaskResult{Candidates: candidates, TotalWeight: total, Samples: task.Budget}, nil
}

func (j *MetropolisJob) performMutations(task *Task, progress ProgressFunc) (*TaskResult, error) {
	if len(task.Seeds) != len(task.ChainBudgets) {
		return nil, fmt.Errorf("%w: %d seeds with %d chain budgets", ErrMalformedTask, len(task.Seeds), len(task.ChainBudgets))
	}
	tc := j.newTaskContext(task.Seed)
	rec := metropolis.RecorderFunc(func(s metropolis.Sample, weight float64) {
		tc.raster.AddSample(s.ImagePoint, s.Color.Multiply(weight))
	})

	done := 0
	for i, seed := range task.Seeds {
		chain, err := metropolis.NewPathChain(tc.generator, tc.joiner, seed, j.config.Chain, rand.New(rand.NewSource(tc.random.Int63())))
		if err != nil {
			return nil, err
		}
		for step := 0; step < task.ChainBudgets[i]; step++ {
			if done%1024 == 0 && cancelled(progress, done, task.Budget) {
				return nil, ErrTaskCancelled
			}
			if _, err := chain.Step(rec); err != nil {
				return nil, fmt.Errorf("chain %d step %d: %w", i, step, err)
			}
			done++
		}
	}

	pixels := float64(j.config.Width * j.config.Height)
	tc.raster.Scale(pixels * task.Normalization / float64(task.Budget))
	return &TaskResult{Raster: tc.raster, Samples: task.Budget}, nil
}

// SubmitTaskResults merges a finished task, or re-queues a cancelled one.
// The last seed task to arrive opens phase 2.
func (j *MetropolisJob) SubmitTaskResults(task *Task, result *TaskResult) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", ErrMalformedTask)
	}

	var q *queue
	var kind TaskKind
	switch {
	case j.seeds.has(task):
		q, kind = j.seeds, SeedTask
	case j.mutations != nil && j.mutations.has(task):
		q, kind = j.mutations, MutationTask
	default:
		return fmt.Errorf("%w: task %d", ErrUnknownTask, task.ID)
	}
	if task.Kind != kind {
		return fmt.Errorf("%w: task %d has kind %s, expected %s", ErrMalformedTask, task.ID, task.Kind, kind)
	}
	task, err := q.claim(task)
	if err != nil {
		return err
	}

	if result == nil {
		q.requeue(task)
		return nil
	}
	if result.Samples != task.Budget {
		return fmt.Errorf("%w: task %d reported %d of %d samples", ErrMalformedTask, task.ID, result.Samples, task.Budget)
	}

	if kind == SeedTask {
		j.seedResults = append(j.seedResults, seedResult{
			offset:     task.Offset,
			candidates: result.Candidates,
			weight:     result.TotalWeight,
		})
		q.finish(task)
		if q.done() {
			j.startMutations()
		}
		return nil
	}

	if err := j.acc.Add(result.Raster, result.Samples); err != nil {
		return fmt.Errorf("task %d: %w", task.ID, err)
	}
	q.finish(task)
	if j.display != nil {
		j.display.SetPixels(0, 0, j.acc.Raster())
	}
	j.logger.Printf("Merged task %d: %d/%d mutations\n", task.ID, j.acc.Samples(), j.config.Mutations)
	if q.done() {
		j.finish()
	}
	return nil
}

// startMutations resamples the pool into chain seeds and queues phase 2.
// Results are combined in sample order so the outcome does not depend on which
// seed task finished first.
func (j *MetropolisJob) startMutations() {
	sort.Slice(j.seedResults, func(a, b int) bool {
		return j.seedResults[a].offset < j.seedResults[b].offset
	})
	var pool []metropolis.Candidate
	total := 0.0
	for _, r := range j.seedResults {
		pool = append(pool, r.candidates...)
		total += r.weight
	}
	j.seedResults = nil
	j.normalization = total / float64(j.config.InitialSamples)
	j.mutations = newQueue(j.seeds.nextID)

	if total <= 0 {
		j.logger.Printf("Metropolis phase 1 found no light-carrying paths; image is black\n")
		j.finish()
		return
	}

	offset := rand.New(rand.NewSource(j.config.Seed)).Float64()
	seeds := metropolis.Resample(pool, j.config.NumSeeds, offset)
	chainBudgets := SplitBudget(j.config.Mutations, len(seeds))

	start := 0
	for i, n := range SplitBudget(len(seeds), j.config.MutationTasks) {
		budget := 0
		for _, b := range chainBudgets[start : start+n] {
			budget += b
		}
		if budget > 0 {
			j.mutations.add(&Task{
				Kind:          MutationTask,
				Budget:        budget,
				Seed:          metropolis.SampleSeed(^j.config.Seed, i),
				Seeds:         seeds[start : start+n],
				ChainBudgets:  chainBudgets[start : start+n],
				Normalization: j.normalization,
			})
		}
		start += n
	}

	j.logger.Printf("Metropolis phase 2: %d candidates, b=%.6f, %d chains, %d mutations in %d tasks\n",
		len(pool), j.normalization, len(seeds), j.config.Mutations, j.mutations.total)
	if j.mutations.total == 0 {
		j.finish()
	}
}

func (j *MetropolisJob) finish() {
	j.complete = true
	if j.display != nil {
		j.display.SetPixels(0, 0, j.acc.Raster())
		j.display.Finish()
	}
	j.logger.Printf("Metropolis render complete\n")
}
