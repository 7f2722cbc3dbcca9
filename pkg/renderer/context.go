package renderer

import (
	"math/rand"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/integrator"
)

// taskContext is the private state of one running task. It is built fresh for
// every task, so nothing sampling-related is shared between workers.
type taskContext struct {
	tracer    *integrator.Tracer
	generator *integrator.PathGenerator
	joiner    *integrator.Joiner
	raster    *Raster
	random    *rand.Rand
}

func newTaskContext(scene core.Scene, info integrator.PathInfo, heuristic integrator.Heuristic, colorModel core.ColorModel, width, height int, seed int64) *taskContext {
	tracer := integrator.NewTracer(scene, info)
	return &taskContext{
		tracer:    tracer,
		generator: integrator.NewPathGenerator(tracer, colorModel),
		joiner:    integrator.NewJoiner(scene, heuristic),
		raster:    NewRaster(width, height),
		random:    rand.New(rand.NewSource(seed)),
	}
}
