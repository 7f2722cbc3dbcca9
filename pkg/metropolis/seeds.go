package metropolis

import (
	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/integrator"
)

// PathSeed regenerates a Metropolis starting path: replaying a RandomSequence
// built from Seed through the path generator and truncating the result to
// (LightLength, EyeLength) yields the same path on any machine.
type PathSeed struct {
	Seed        int64 `json:"seed"`
	LightLength int   `json:"lightLength"`
	EyeLength   int   `json:"eyeLength"`
}

// Candidate is one truncation of a phase-1 sample, weighted by its luminance
type Candidate struct {
	PathSeed
	Weight float64
}

// SampleSeed derives the sequence seed of the i-th phase-1 sample. Seeds are
// spread with a splitmix64 step so neighbouring samples are unrelated.
func SampleSeed(base int64, i int) int64 {
	z := uint64(base) + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// SeedGenerator traces phase-1 samples and turns every non-zero truncation
// into a candidate. It owns a tracer and is not safe for concurrent use.
type SeedGenerator struct {
	generator *integrator.PathGenerator
	joiner    *integrator.Joiner
}

// NewSeedGenerator creates a generator on top of a path generator and joiner
// sharing the same scene
func NewSeedGenerator(generator *integrator.PathGenerator, joiner *integrator.Joiner) *SeedGenerator {
	return &SeedGenerator{generator: generator, joiner: joiner}
}

// Sample traces the path of one seed and appends a candidate for each
// truncation with positive luminance. It returns the extended slice and the
// summed weight of the new candidates.
func (g *SeedGenerator) Sample(seed int64, dst []Candidate) ([]Candidate, float64, error) {
	p, weight := g.generator.Generate(core.NewRandomSequence(seed))

	total := 0.0
	for l := -1; l <= p.LightLength(); l++ {
		for e := 0; e <= p.EyeLength(); e++ {
			sub, err := p.Slice(l, e)
			if err != nil {
				return dst, total, err
			}
			c, ok, err := g.joiner.Join(sub.Light, sub.Eye)
			if err != nil {
				return dst, total, err
			}
			if !ok {
				continue
			}
			w := c.Color.MultiplyVec(weight).Luminance()
			if w <= 0 {
				continue
			}
			dst = append(dst, Candidate{
				PathSeed: PathSeed{Seed: seed, LightLength: l, EyeLength: e},
				Weight:   w,
			})
			total += w
		}
	}
	return dst, total, nil
}
