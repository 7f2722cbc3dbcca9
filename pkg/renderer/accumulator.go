package renderer

import (
	"fmt"
)

// AccumulationMode selects how task rasters are merged
type AccumulationMode int

const (
	// Blend keeps a running average that is displayable after every task
	Blend AccumulationMode = iota
	// Deferred sums sample-weighted rasters and normalizes once on read
	Deferred
)

func (m AccumulationMode) String() string {
	if m == Deferred {
		return "deferred"
	}
	return "blend"
}

// Accumulator merges per-task rasters, each normalized by its own sample count.
// Both modes converge to the sample-weighted mean of the task rasters.
type Accumulator struct {
	mode    AccumulationMode
	raster  *Raster
	samples int
}

// NewAccumulator creates an empty accumulator
func NewAccumulator(mode AccumulationMode, width, height int) *Accumulator {
	return &Accumulator{mode: mode, raster: NewRaster(width, height)}
}

// Add merges a task raster that represents the mean of samples samples
func (a *Accumulator) Add(r *Raster, samples int) error {
	if !a.raster.SameSize(r) {
		return fmt.Errorf("%w: raster size does not match %dx%d", ErrMalformedTask, a.raster.width, a.raster.height)
	}
	if samples <= 0 {
		return fmt.Errorf("%w: task reported %d samples", ErrMalformedTask, samples)
	}

	a.samples += samples
	switch a.mode {
	case Deferred:
		for i, p := range r.pixels {
			a.raster.pixels[i] = a.raster.pixels[i].Add(p.Multiply(float64(samples)))
		}
	default:
		alpha := float64(samples) / float64(a.samples)
		for i, p := range r.pixels {
			a.raster.pixels[i] = a.raster.pixels[i].Multiply(1 - alpha).Add(p.Multiply(alpha))
		}
	}
	return nil
}

// Samples returns the number of samples merged so far
func (a *Accumulator) Samples() int {
	return a.samples
}

// Raster returns the current normalized image as a new raster
func (a *Accumulator) Raster() *Raster {
	out := a.raster.Clone()
	if a.mode == Deferred && a.samples > 0 {
		out.Scale(1 / float64(a.samples))
	}
	return out
}
