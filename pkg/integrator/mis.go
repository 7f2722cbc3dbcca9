package integrator

import (
	"github.com/df07/go-mlt/pkg/core"
)

// Heuristic selects how densities of competing strategies are combined
type Heuristic int

const (
	BalanceHeuristic Heuristic = iota // w = p_s / Σ p_j
	PowerHeuristic                    // w = p_s² / Σ p_j²
)

func (h Heuristic) apply(r float64) float64 {
	if h == PowerHeuristic {
		return r * r
	}
	return r
}

func (h Heuristic) String() string {
	if h == PowerHeuristic {
		return "power"
	}
	return "balance"
}

// chainVertex is one vertex of a complete path z_0 (emitter) .. z_k (lens)
type chainVertex struct {
	point    core.Vec3
	normal   core.Vec3
	material core.Material
	delta    bool
}

// buildChain lays out the vertices of the path joined from two tails, emitter first.
// Without a light tail the eye tail itself must be on the emitter.
func buildChain(light, eye Node, dst []chainVertex) []chainVertex {
	dst = dst[:0]
	if light.Valid() {
		for n, ok := light, true; ok; n, ok = n.Parent() {
			dst = append(dst, toChainVertex(n))
		}
		for i, j := 0, len(dst)-1; i < j; i, j = i+1, j-1 {
			dst[i], dst[j] = dst[j], dst[i]
		}
	}
	for n, ok := eye, eye.Valid(); ok; n, ok = n.Parent() {
		dst = append(dst, toChainVertex(n))
	}
	return dst
}

func toChainVertex(n Node) chainVertex {
	v := n.Vertex()
	return chainVertex{point: v.Point, normal: v.Normal, material: v.Material, delta: v.Delta}
}

// misWeight returns the weight of strategy s (s vertices sampled from the light,
// the rest from the eye) among every strategy able to produce the same chain.
func (j *Joiner) misWeight(chain []chainVertex, s int) float64 {
	k := len(chain) - 1
	if k < 1 || s < 0 || s > k || !strategyValid(chain, s) {
		return 0
	}
	pL, pE := j.densities(chain)

	sum := 1.0
	r := 1.0
	for i := s + 1; i <= k; i++ {
		if pE[i-1] == 0 {
			return 0
		}
		r *= pL[i-1] / pE[i-1]
		if strategyValid(chain, i) {
			sum += j.heuristic.apply(r)
		}
	}

	r = 1.0
	for i := s - 1; i >= 0; i-- {
		if pL[i] == 0 {
			return 0
		}
		r *= pE[i] / pL[i]
		if strategyValid(chain, i) {
			sum += j.heuristic.apply(r)
		}
	}

	return 1.0 / sum
}

// strategyValid reports whether strategy s can connect its two subpaths.
// Neither connection endpoint may scatter through a delta lobe, and at least the
// lens must come from the eye side.
func strategyValid(chain []chainVertex, s int) bool {
	k := len(chain) - 1
	if s > k {
		return false
	}
	if s > 0 && chain[s-1].delta {
		return false
	}
	return !chain[s].delta
}

// densities fills the area densities of every chain vertex under light sampling
// (pL) and eye sampling (pE). Delta lobes are recorded as 1 on both sides.
func (j *Joiner) densities(chain []chainVertex) ([]float64, []float64) {
	k := len(chain) - 1
	if cap(j.pL) < k+1 {
		j.pL = make([]float64, k+1)
		j.pE = make([]float64, k+1)
	}
	pL, pE := j.pL[:k+1], j.pE[:k+1]

	light := j.scene.Light()
	lens := j.scene.Lens()

	pL[0] = light.PositionPDF(chain[0].point)
	for i := 1; i <= k; i++ {
		if i == 1 {
			dir := chain[1].point.Subtract(chain[0].point).Normalize()
			pL[1] = toArea(light.DirectionPDF(chain[0].normal, dir), chain[0], chain[1])
			continue
		}
		pL[i] = scatterDensity(chain[i-1], chain[i-2], chain[i], true)
	}

	pE[k] = 1
	for i := k - 1; i >= 0; i-- {
		if i == k-1 {
			dir := chain[i].point.Subtract(chain[k].point).Normalize()
			pE[i] = toArea(lens.DirectionPDF(dir), chain[k], chain[i])
			continue
		}
		pE[i] = scatterDensity(chain[i+1], chain[i+2], chain[i], false)
	}

	return pL, pE
}

// scatterDensity is the area density at next of scattering at `at` after arriving from prev
func scatterDensity(at, prev, next chainVertex, adjoint bool) float64 {
	wPrev := prev.point.Subtract(at.point).Normalize()
	wNext := next.point.Subtract(at.point).Normalize()
	pdf, delta := at.material.ScatteringPDF(at.normal, wPrev, wNext, adjoint)
	if delta {
		return 1
	}
	return toArea(pdf, at, next)
}

// toArea converts a solid-angle density at from into an area density at to.
// The lens has no surface, so no cosine applies there.
func toArea(pdf float64, from, to chainVertex) float64 {
	d := to.point.Subtract(from.point)
	dist2 := d.LengthSquared()
	if dist2 == 0 {
		return 0
	}
	if to.normal.IsZero() {
		return pdf / dist2
	}
	return pdf * to.normal.AbsDot(d) / (dist2 * d.Length())
}
