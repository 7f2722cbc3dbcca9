package metropolis

// Resample draws count seeds from candidates with probability proportional to
// their weight, using a single systematic sweep. offset in [0,1) positions the
// sweep: the cumulative weight is rescaled to [0,count) and a seed is emitted
// for every point offset+j it passes. A candidate holding a fraction q of the
// total weight is chosen either floor(q·count) or ceil(q·count) times.
func Resample(candidates []Candidate, count int, offset float64) []PathSeed {
	if count <= 0 {
		return nil
	}
	total := 0.0
	for _, c := range candidates {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total <= 0 {
		return nil
	}

	seeds := make([]PathSeed, 0, count)
	scale := float64(count) / total
	cumulative := 0.0
	last := -1
	for i, c := range candidates {
		if c.Weight <= 0 {
			continue
		}
		last = i
		cumulative += c.Weight * scale
		for len(seeds) < count && offset+float64(len(seeds)) < cumulative {
			seeds = append(seeds, c.PathSeed)
		}
	}

	// Rounding can leave the sweep just short of the final point
	for len(seeds) < count {
		seeds = append(seeds, candidates[last].PathSeed)
	}
	return seeds
}
