package renderer

import (
	"context"
	"fmt"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/integrator"
	"github.com/df07/go-mlt/pkg/metropolis"
)

// BidiConfig contains configuration for direct bidirectional rendering
type BidiConfig struct {
	Width                int                  // Image width in pixels
	Height               int                  // Image height in pixels
	EyePathsPerPixel     int                  // Passes; each pass traces one eye path per pixel
	LightPathsPerEyePath int                  // Light subpaths joined with every eye subpath
	NumTasks             int                  // Tasks the passes are split into
	Heuristic            integrator.Heuristic // MIS combination rule
	PathInfo             integrator.PathInfo  // Subpath depth and roulette settings
	Mode                 AccumulationMode     // How task rasters are merged
	Seed                 int64                // Base seed of every task generator
}

// DefaultBidiConfig returns sensible default values
func DefaultBidiConfig() BidiConfig {
	return BidiConfig{
		Width:                400,
		Height:               400,
		EyePathsPerPixel:     16,
		LightPathsPerEyePath: 1,
		NumTasks:             8,
		Heuristic:            integrator.PowerHeuristic,
		PathInfo:             integrator.DefaultPathInfo(),
		Mode:                 Blend,
		Seed:                 1,
	}
}

// Validate checks the configuration
func (c BidiConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.EyePathsPerPixel <= 0 || c.LightPathsPerEyePath <= 0 {
		return fmt.Errorf("%w: %d eye paths per pixel and %d light paths per eye path must be positive",
			ErrInvalidConfig, c.EyePathsPerPixel, c.LightPathsPerEyePath)
	}
	if c.NumTasks <= 0 {
		return fmt.Errorf("%w: task count %d must be positive", ErrInvalidConfig, c.NumTasks)
	}
	if err := c.PathInfo.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// BidiJob renders an image by direct bidirectional sampling. The eye paths per
// pixel are split into render tasks; each task makes its passes over the whole
// image and returns the mean of its passes.
type BidiJob struct {
	scene      core.Scene
	config     BidiConfig
	colorModel core.ColorModel
	display    Display
	logger     core.Logger
	tasks      *queue
	acc        *Accumulator
}

// NewBidiJob creates the job and initializes the display
func NewBidiJob(scene core.Scene, config BidiConfig, display Display, logger core.Logger) (*BidiJob, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	j := &BidiJob{
		scene:      scene,
		config:     config,
		colorModel: core.RGBColorModel{},
		display:    display,
		logger:     orDiscard(logger),
		tasks:      newQueue(0),
		acc:        NewAccumulator(config.Mode, config.Width, config.Height),
	}

	for i, passes := range SplitBudget(config.EyePathsPerPixel, config.NumTasks) {
		if passes == 0 {
			continue
		}
		j.tasks.add(&Task{Kind: RenderTask, Budget: passes, Seed: metropolis.SampleSeed(config.Seed, i)})
	}

	if display != nil {
		display.Initialize(config.Width, config.Height, j.colorModel)
	}
	j.logger.Printf("Bidirectional render: %dx%d, %d eye paths per pixel, %d light paths each, %d tasks\n",
		config.Width, config.Height, config.EyePathsPerPixel, config.LightPathsPerEyePath, j.tasks.total)
	return j, nil
}

// NextTask returns the next pending render task
func (j *BidiJob) NextTask() *Task {
	return j.tasks.next()
}

// IsComplete reports whether every pass has been merged
func (j *BidiJob) IsComplete() bool {
	return j.tasks.done()
}

// Image returns the current accumulated raster
func (j *BidiJob) Image() *Raster {
	return j.acc.Raster()
}

// PerformTask traces the task's passes into a private raster
func (j *BidiJob) PerformTask(ctx context.Context, task *Task, progress ProgressFunc) (*TaskResult, error) {
	if task == nil || task.Kind != RenderTask || task.Budget <= 0 {
		return nil, fmt.Errorf("%w: bidirectional job cannot run %v", ErrMalformedTask, task)
	}
	w, h := j.config.Width, j.config.Height
	tc := newTaskContext(j.scene, j.config.PathInfo, j.config.Heuristic, j.colorModel, w, h, task.Seed)
	sampler := core.NewRandomSampler(tc.random)

	lightPaths := j.config.LightPathsPerEyePath
	lightTails := make([]integrator.Node, lightPaths)
	lightScale := 1 / float64(lightPaths)

	total := task.Budget * h
	for pass := 0; pass < task.Budget; pass++ {
		for y := 0; y < h; y++ {
			if cancelled(progress, pass*h+y, total) {
				return nil, ErrTaskCancelled
			}
			for x := 0; x < w; x++ {
				tc.tracer.Reset()
				weight, wavelength := j.colorModel.Sample(sampler)
				tc.tracer.SetWavelength(wavelength)

				jitter := sampler.Get2D()
				imagePoint := core.NewVec2((float64(x)+jitter.X)/float64(w), (float64(y)+jitter.Y)/float64(h))
				eyeTail := tc.tracer.TraceEyePath(imagePoint, sampler)
				for i := range lightTails {
					lightTails[i] = tc.tracer.TraceLightPath(sampler)
				}

				if err := j.joinSample(tc, eyeTail, lightTails, weight, lightScale); err != nil {
					return nil, err
				}
			}
		}
	}

	tc.raster.Scale(1 / float64(task.Budget))
	return &TaskResult{Raster: tc.raster, Samples: task.Budget}, nil
}

// joinSample adds every truncation of one eye subpath against each light subpath.
// Strategies without a light vertex are counted once; the others are averaged
// over the light subpaths.
func (j *BidiJob) joinSample(tc *taskContext, eyeTail integrator.Node, lightTails []integrator.Node, weight core.Vec3, lightScale float64) error {
	eyeOnly := integrator.NewPath(integrator.Node{}, eyeTail)
	for e := 0; e <= eyeOnly.EyeLength(); e++ {
		sub, err := eyeOnly.Slice(-1, e)
		if err != nil {
			return err
		}
		if err := j.add(tc, integrator.Node{}, sub.Eye, weight); err != nil {
			return err
		}
	}

	scaled := weight.Multiply(lightScale)
	for _, lightTail := range lightTails {
		p := integrator.NewPath(lightTail, eyeTail)
		for l := 0; l <= p.LightLength(); l++ {
			for e := 0; e <= p.EyeLength(); e++ {
				sub, err := p.Slice(l, e)
				if err != nil {
					return err
				}
				if err := j.add(tc, sub.Light, sub.Eye, scaled); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (j *BidiJob) add(tc *taskContext, light, eye integrator.Node, weight core.Vec3) error {
	c, ok, err := tc.joiner.Join(light, eye)
	if err != nil || !ok {
		return err
	}
	tc.raster.AddSample(c.ImagePoint, c.Color.MultiplyVec(weight))
	return nil
}

// SubmitTaskResults merges a finished task, or re-queues a cancelled one
func (j *BidiJob) SubmitTaskResults(task *Task, result *TaskResult) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", ErrMalformedTask)
	}
	if !j.tasks.has(task) {
		return fmt.Errorf("%w: task %d", ErrUnknownTask, task.ID)
	}
	if task.Kind != RenderTask {
		return fmt.Errorf("%w: task %d has kind %s", ErrMalformedTask, task.ID, task.Kind)
	}
	task, err := j.tasks.claim(task)
	if err != nil {
		return err
	}

	if result == nil {
		j.tasks.requeue(task)
		return nil
	}
	if result.Samples != task.Budget {
		return fmt.Errorf("%w: task %d reported %d of %d passes", ErrMalformedTask, task.ID, result.Samples, task.Budget)
	}
	if err := j.acc.Add(result.Raster, result.Samples); err != nil {
		return fmt.Errorf("task %d: %w", task.ID, err)
	}
	j.tasks.finish(task)

	if j.display != nil {
		j.display.SetPixels(0, 0, j.acc.Raster())
	}
	j.logger.Printf("Merged task %d: %d/%d eye paths per pixel\n", task.ID, j.acc.Samples(), j.config.EyePathsPerPixel)

	if j.tasks.done() {
		if j.display != nil {
			j.display.Finish()
		}
		j.logger.Printf("Bidirectional render complete\n")
	}
	return nil
}
