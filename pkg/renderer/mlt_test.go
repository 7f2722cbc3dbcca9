package renderer

import (
	"context"
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"

	"github.com/df07/go-mlt/pkg/integrator"
	"github.com/df07/go-mlt/pkg/scene"
)

func planeMetropolisConfig(s *scene.Scene) MetropolisConfig {
	config := DefaultMetropolisConfig()
	config.Width = s.SamplingConfig.Width
	config.Height = s.SamplingConfig.Height
	config.InitialSamples = 20000
	config.SeedTasks = 4
	config.NumSeeds = 64
	config.Mutations = 64000
	config.MutationTasks = 4
	config.PathInfo = integrator.PathInfo{
		MaxDepth:      s.SamplingConfig.MaxDepth,
		RouletteDepth: s.SamplingConfig.RussianRouletteMinBounces,
	}
	config.Mode = Deferred
	return config
}

// runSeedTasks performs the given seed tasks and returns their results in order
func runSeedTasks(t *testing.T, job *MetropolisJob, tasks []*Task) []*TaskResult {
	t.Helper()
	results := make([]*TaskResult, len(tasks))
	for i, task := range tasks {
		result, err := job.PerformTask(context.Background(), task, nil)
		if err != nil {
			t.Fatalf("Seed task %d failed: %v", task.ID, err)
		}
		results[i] = result
	}
	return results
}

func drainTasks(job *MetropolisJob) []*Task {
	var tasks []*Task
	for task := job.NextTask(); task != nil; task = job.NextTask() {
		tasks = append(tasks, task)
	}
	return tasks
}

func TestMetropolisConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*MetropolisConfig)
		wantErr bool
	}{
		{"default", func(*MetropolisConfig) {}, false},
		{"zero height", func(c *MetropolisConfig) { c.Height = 0 }, true},
		{"no initial samples", func(c *MetropolisConfig) { c.InitialSamples = 0 }, true},
		{"no seeds", func(c *MetropolisConfig) { c.NumSeeds = 0 }, true},
		{"no mutation tasks", func(c *MetropolisConfig) { c.MutationTasks = 0 }, true},
		{"bad chain", func(c *MetropolisConfig) { c.Chain.LargeStepProbability = 2 }, true},
		{"bad path info", func(c *MetropolisConfig) { c.PathInfo.RouletteDepth = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultMetropolisConfig()
			tt.modify(&config)
			err := config.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestMetropolisJob_SeedBarrier(t *testing.T) {
	s := newPlaneScene(t)
	config := planeMetropolisConfig(s)
	config.InitialSamples = 400
	config.SeedTasks = 2
	config.NumSeeds = 10
	config.Mutations = 1003
	config.MutationTasks = 3
	job, err := NewMetropolisJob(s, config, nil, nil)
	if err != nil {
		t.Fatalf("NewMetropolisJob failed: %v", err)
	}

	seedTasks := drainTasks(job)
	if len(seedTasks) != 2 {
		t.Fatalf("Expected 2 seed tasks, got %d", len(seedTasks))
	}
	results := runSeedTasks(t, job, seedTasks)

	if err := job.SubmitTaskResults(seedTasks[0], results[0]); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if task := job.NextTask(); task != nil {
		t.Fatalf("No mutation task may start before every seed task is merged, got %+v", task)
	}
	if err := job.SubmitTaskResults(seedTasks[1], results[1]); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if job.Normalization() <= 0 {
		t.Fatalf("Expected a positive normalization, got %f", job.Normalization())
	}

	mutationTasks := drainTasks(job)
	if len(mutationTasks) != 3 {
		t.Fatalf("Expected 3 mutation tasks, got %d", len(mutationTasks))
	}
	budget, chains := 0, 0
	for _, task := range mutationTasks {
		if task.Kind != MutationTask {
			t.Errorf("Task %d has kind %s", task.ID, task.Kind)
		}
		if task.ID < 2 {
			t.Errorf("Mutation task reuses seed task ID %d", task.ID)
		}
		if task.Normalization != job.Normalization() {
			t.Errorf("Task %d carries normalization %f, job has %f", task.ID, task.Normalization, job.Normalization())
		}
		sum := 0
		for _, b := range task.ChainBudgets {
			sum += b
		}
		if sum != task.Budget {
			t.Errorf("Task %d budget %d, chain budgets sum to %d", task.ID, task.Budget, sum)
		}
		budget += task.Budget
		chains += len(task.Seeds)
	}
	if budget != config.Mutations {
		t.Errorf("Mutation budgets sum to %d, expected %d", budget, config.Mutations)
	}
	if chains != config.NumSeeds {
		t.Errorf("Expected %d chains, got %d", config.NumSeeds, chains)
	}

	// Seed tasks are closed once the barrier opens
	if err := job.SubmitTaskResults(seedTasks[0], results[0]); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Expected ErrUnknownTask for a late seed result, got %v", err)
	}
}

func TestMetropolisJob_SubmissionOrderIndependence(t *testing.T) {
	s := newPlaneScene(t)
	config := planeMetropolisConfig(s)
	config.InitialSamples = 600
	config.SeedTasks = 3
	config.NumSeeds = 12
	config.Mutations = 1200

	phase2 := func(reverse bool) (*MetropolisJob, []*Task) {
		job, err := NewMetropolisJob(s, config, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		tasks := drainTasks(job)
		results := runSeedTasks(t, job, tasks)
		for i := range tasks {
			k := i
			if reverse {
				k = len(tasks) - 1 - i
			}
			if err := job.SubmitTaskResults(tasks[k], results[k]); err != nil {
				t.Fatal(err)
			}
		}
		return job, drainTasks(job)
	}

	forward, forwardTasks := phase2(false)
	reversed, reversedTasks := phase2(true)

	if forward.Normalization() != reversed.Normalization() {
		t.Errorf("Normalization depends on merge order: %v vs %v", forward.Normalization(), reversed.Normalization())
	}
	if len(forwardTasks) != len(reversedTasks) {
		t.Fatalf("Task counts differ: %d vs %d", len(forwardTasks), len(reversedTasks))
	}
	for i := range forwardTasks {
		a, b := forwardTasks[i], reversedTasks[i]
		if a.Seed != b.Seed || a.Budget != b.Budget || !reflect.DeepEqual(a.Seeds, b.Seeds) {
			t.Errorf("Mutation task %d differs between merge orders", i)
		}
	}
}

func TestMetropolisJob_RejectsBadSubmissions(t *testing.T) {
	s := newPlaneScene(t)
	config := planeMetropolisConfig(s)
	config.InitialSamples = 100
	config.SeedTasks = 1
	job, err := NewMetropolisJob(s, config, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	task := job.NextTask()

	wrongKind := *task
	wrongKind.Kind = MutationTask
	if err := job.SubmitTaskResults(&wrongKind, &TaskResult{Samples: task.Budget}); !errors.Is(err, ErrMalformedTask) {
		t.Errorf("Expected ErrMalformedTask, got %v", err)
	}
	if err := job.SubmitTaskResults(task, &TaskResult{Samples: 1}); !errors.Is(err, ErrMalformedTask) {
		t.Errorf("Expected ErrMalformedTask for a short result, got %v", err)
	}
	for i, forge := range []func(*Task){
		func(f *Task) { f.Budget = 3 },
		func(f *Task) { f.Offset = 50 },
	} {
		f := *task
		forge(&f)
		if err := job.SubmitTaskResults(&f, &TaskResult{Samples: f.Budget}); !errors.Is(err, ErrMalformedTask) {
			t.Errorf("Forged seed task %d: expected ErrMalformedTask, got %v", i, err)
		}
	}
	if _, err := job.PerformTask(context.Background(), &Task{Kind: RenderTask, Budget: 1}, nil); !errors.Is(err, ErrMalformedTask) {
		t.Errorf("Expected ErrMalformedTask for a render task, got %v", err)
	}

	if err := job.SubmitTaskResults(task, nil); err != nil {
		t.Fatalf("Submitting a cancellation failed: %v", err)
	}
	retry := job.NextTask()
	if retry == nil || retry.Kind != SeedTask || retry.Offset != task.Offset || retry.Budget != task.Budget {
		t.Fatalf("Expected the seed task to be re-queued, got %+v", retry)
	}

	result, err := job.PerformTask(context.Background(), retry, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := job.SubmitTaskResults(retry, result); err != nil {
		t.Fatal(err)
	}
	mutation := job.NextTask()
	if mutation == nil || mutation.Kind != MutationTask {
		t.Fatalf("Expected a mutation task, got %+v", mutation)
	}
	for i, forge := range []func(*Task){
		func(f *Task) { f.Budget++ },
		func(f *Task) { f.Normalization *= 2 },
		func(f *Task) { f.Seeds = f.Seeds[:len(f.Seeds)-1] },
		func(f *Task) {
			f.ChainBudgets = slices.Clone(f.ChainBudgets)
			f.ChainBudgets[0]++
		},
	} {
		f := *mutation
		forge(&f)
		if err := job.SubmitTaskResults(&f, &TaskResult{Raster: NewRaster(config.Width, config.Height), Samples: f.Budget}); !errors.Is(err, ErrMalformedTask) {
			t.Errorf("Forged mutation task %d: expected ErrMalformedTask, got %v", i, err)
		}
	}
}

func TestMetropolisJob_LambertianPlane(t *testing.T) {
	s := newPlaneScene(t)
	display := NewImageDisplay(1)
	job, err := NewMetropolisJob(s, planeMetropolisConfig(s), display, nil)
	if err != nil {
		t.Fatalf("NewMetropolisJob failed: %v", err)
	}

	stats, err := NewRunner(job, 4, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !job.IsComplete() || !display.Finished() {
		t.Fatal("Job and display should be finished")
	}
	if stats.TasksCompleted != 8 {
		t.Errorf("Expected 4 seed and 4 mutation tasks, got %d", stats.TasksCompleted)
	}

	want := scene.PlaneRadiance()
	if b := job.Normalization(); math.Abs(b-want) > 0.03*want {
		t.Errorf("Normalization %.4f, expected about %.4f", b, want)
	}

	img := job.Image()
	if mean := img.MeanLuminance(); math.Abs(mean-job.Normalization()) > 1e-6*want {
		t.Errorf("Image mean luminance %.6f should equal the normalization %.6f", mean, job.Normalization())
	}
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			p := img.GetPixel(x, y)
			if p.X < 0 || p.Y < 0 || p.Z < 0 {
				t.Fatalf("Negative pixel (%d,%d): %v", x, y, p)
			}
			if math.Abs(p.Luminance()-want) > 0.25*want {
				t.Errorf("Pixel (%d,%d) luminance %.4f, expected about %.4f", x, y, p.Luminance(), want)
			}
		}
	}
}
