package metropolis

import (
	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/integrator"
)

// Sample is the evaluated state of a chain
type Sample struct {
	ImagePoint core.Vec2
	Color      core.Vec3
	F          float64 // Scalar target value, the luminance of Color
}

// Target maps a primary sample sequence to the value the chain explores.
// Evaluate must rewind the sequence before reading it, so that evaluating the
// same unmutated sequence twice gives the same sample.
type Target interface {
	Evaluate(seq *core.RandomSequence) (Sample, error)
}

// PathTarget evaluates one fixed truncation (l, e) of the paths a sequence generates
type PathTarget struct {
	generator   *integrator.PathGenerator
	joiner      *integrator.Joiner
	lightLength int
	eyeLength   int
}

// NewPathTarget creates a target for paths truncated to the seed's lengths
func NewPathTarget(generator *integrator.PathGenerator, joiner *integrator.Joiner, seed PathSeed) *PathTarget {
	return &PathTarget{
		generator:   generator,
		joiner:      joiner,
		lightLength: seed.LightLength,
		eyeLength:   seed.EyeLength,
	}
}

// Evaluate regenerates the path and joins its (l, e) truncation. Paths too
// short for the truncation have zero value.
func (t *PathTarget) Evaluate(seq *core.RandomSequence) (Sample, error) {
	seq.Reset()
	p, weight := t.generator.Generate(seq)
	if p.LightLength() < t.lightLength || p.EyeLength() < t.eyeLength {
		return Sample{}, nil
	}

	sub, err := p.Slice(t.lightLength, t.eyeLength)
	if err != nil {
		return Sample{}, err
	}
	c, ok, err := t.joiner.Join(sub.Light, sub.Eye)
	if err != nil || !ok {
		return Sample{}, err
	}

	color := c.Color.MultiplyVec(weight)
	return Sample{ImagePoint: c.ImagePoint, Color: color, F: color.Luminance()}, nil
}
