package metropolis

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/integrator"
)

// MutationKind selects how a proposal is derived from the current state
type MutationKind int

const (
	LargeStep MutationKind = iota // Fresh sequence, independent of the current state
	ImageStep                     // Perturb the image point draws only
	AllStep                       // Perturb every recorded draw
)

func (k MutationKind) String() string {
	switch k {
	case LargeStep:
		return "large"
	case ImageStep:
		return "image"
	default:
		return "all"
	}
}

// ChainConfig contains the mutation mix of a chain
type ChainConfig struct {
	LargeStepProbability float64 // Chance of a large step
	ImageStepProbability float64 // Chance of an image step; the rest perturbs everything
	ImageWidth           float64 // Perturbation half-width for image draws
	AllWidth             float64 // Perturbation half-width for all-coordinate steps
}

// DefaultChainConfig returns a mix suitable for most scenes
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		LargeStepProbability: 0.1,
		ImageStepProbability: 0.45,
		ImageWidth:           0.05,
		AllWidth:             1.0 / 64,
	}
}

// Validate checks the configuration
func (c ChainConfig) Validate() error {
	if c.LargeStepProbability < 0 || c.ImageStepProbability < 0 ||
		c.LargeStepProbability+c.ImageStepProbability > 1 {
		return fmt.Errorf("%w: step probabilities %g and %g must be non-negative and sum to at most 1",
			ErrInvalidConfig, c.LargeStepProbability, c.ImageStepProbability)
	}
	if c.ImageWidth <= 0 || c.ImageWidth > 0.5 || c.AllWidth <= 0 || c.AllWidth > 0.5 {
		return fmt.Errorf("%w: perturbation widths %g and %g must be in (0, 0.5]",
			ErrInvalidConfig, c.ImageWidth, c.AllWidth)
	}
	return nil
}

// ChainStats counts proposals and acceptances by mutation kind
type ChainStats struct {
	Proposed [3]int
	Accepted [3]int
}

// AcceptanceRate returns the overall fraction of accepted proposals
func (s ChainStats) AcceptanceRate() float64 {
	proposed, accepted := 0, 0
	for i := range s.Proposed {
		proposed += s.Proposed[i]
		accepted += s.Accepted[i]
	}
	if proposed == 0 {
		return 0
	}
	return float64(accepted) / float64(proposed)
}

// Chain is a Metropolis-Hastings chain in primary sample space. The state is a
// RandomSequence; the accept decision and the choice of mutation come from the
// chain's own driving generator, never from the sequence being explored.
type Chain struct {
	config  ChainConfig
	target  Target
	rng     *rand.Rand
	seq     *core.RandomSequence
	current Sample
	stats   ChainStats
}

// NewChain starts a chain at seq. The starting state must have a positive value.
func NewChain(target Target, seq *core.RandomSequence, config ChainConfig, rng *rand.Rand) (*Chain, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	current, err := target.Evaluate(seq)
	if err != nil {
		return nil, err
	}
	if current.F <= 0 || math.IsNaN(current.F) {
		return nil, ErrZeroSeed
	}
	return &Chain{
		config:  config,
		target:  target,
		rng:     rng,
		seq:     seq,
		current: current,
	}, nil
}

// NewPathChain regenerates a seed path and starts a chain on its truncation
func NewPathChain(generator *integrator.PathGenerator, joiner *integrator.Joiner, seed PathSeed, config ChainConfig, rng *rand.Rand) (*Chain, error) {
	target := NewPathTarget(generator, joiner, seed)
	chain, err := NewChain(target, core.NewRandomSequence(seed.Seed), config, rng)
	if err != nil {
		return nil, fmt.Errorf("seed %d (%d,%d): %w", seed.Seed, seed.LightLength, seed.EyeLength, err)
	}
	return chain, nil
}

// Current returns the state the chain is at
func (c *Chain) Current() Sample {
	return c.current
}

// Stats returns the proposal counters
func (c *Chain) Stats() ChainStats {
	return c.stats
}

// Step proposes one mutation, records both states with their expected weights
// and moves the chain. It reports whether the proposal was accepted.
func (c *Chain) Step(rec Recorder) (bool, error) {
	kind := c.chooseMutation()
	proposal := c.propose(kind)

	y, err := c.target.Evaluate(proposal)
	if err != nil {
		return false, err
	}

	a := 0.0
	if y.F > 0 {
		a = math.Min(1, y.F/c.current.F)
	} else {
		zeroProposals.Inc()
	}
	recordStep(rec, c.current, y, a)

	c.stats.Proposed[kind]++
	mutationsProposed.WithLabelValues(kind.String()).Inc()

	if c.rng.Float64() >= a {
		return false, nil
	}
	c.stats.Accepted[kind]++
	mutationsAccepted.WithLabelValues(kind.String()).Inc()
	c.seq = proposal
	c.current = y
	return true, nil
}

func (c *Chain) chooseMutation() MutationKind {
	u := c.rng.Float64()
	switch {
	case u < c.config.LargeStepProbability:
		return LargeStep
	case u < c.config.LargeStepProbability+c.config.ImageStepProbability:
		return ImageStep
	default:
		return AllStep
	}
}

func (c *Chain) propose(kind MutationKind) *core.RandomSequence {
	if kind == LargeStep {
		return core.NewRandomSequence(c.rng.Int63())
	}
	proposal := c.seq.Clone()
	proposal.Reset()
	if kind == ImageStep {
		proposal.MutateSegment(integrator.ImageSegment, c.config.ImageWidth)
	} else {
		proposal.MutateAll(c.config.AllWidth)
	}
	return proposal
}
