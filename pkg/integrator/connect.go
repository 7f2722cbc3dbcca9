package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-mlt/pkg/core"
)

// Contribution is a weighted color landing at a point of the image
type Contribution struct {
	ImagePoint core.Vec2
	Color      core.Vec3
	Splat      bool // Reprojected onto the sensor rather than found through the eye subpath
}

// Joiner connects light and eye subpath prefixes into complete paths and weights
// them against every other strategy that could produce the same path.
// A Joiner keeps scratch space and is not safe for concurrent use.
type Joiner struct {
	scene     core.Scene
	heuristic Heuristic
	chain     []chainVertex
	pL, pE    []float64
}

// NewJoiner creates a joiner for a scene
func NewJoiner(scene core.Scene, heuristic Heuristic) *Joiner {
	return &Joiner{scene: scene, heuristic: heuristic}
}

// Join evaluates the path made of the light prefix ending at light and the eye
// prefix ending at eye. An invalid light node means the eye prefix must reach the
// emitter by itself. It returns false for zero contributions.
func (j *Joiner) Join(light, eye Node) (Contribution, bool, error) {
	if !eye.Valid() {
		return Contribution{}, false, nil
	}
	l, e := light.Depth(), eye.Depth()
	if (light.Valid() && light.AtInfinity()) || eye.AtInfinity() {
		return Contribution{}, false, nil
	}

	var c Contribution
	switch {
	case l < 0:
		c = j.emitted(eye)
	case e == 0:
		c = j.splat(light, eye)
	default:
		c = j.connect(light, eye)
	}
	if c.Color.IsZero() {
		return Contribution{}, false, nil
	}

	j.chain = buildChain(light, eye, j.chain)
	c.Color = c.Color.Multiply(j.misWeight(j.chain, l+1))

	if c.Color.HasNaN() || c.Color.Luminance() < 0 || math.IsInf(c.Color.Luminance(), 0) {
		return Contribution{}, false, fmt.Errorf("%w: l=%d e=%d color=%v", ErrInvalidContribution, l, e, c.Color)
	}
	if c.Color.IsZero() {
		return Contribution{}, false, nil
	}
	return c, true, nil
}

// emitted handles an eye prefix that ends on the emitter
func (j *Joiner) emitted(eye Node) Contribution {
	v := eye.Vertex()
	if v.Kind != ScatteringVertex || !v.OnLight {
		return Contribution{}
	}
	return Contribution{
		ImagePoint: eye.Root().Vertex().ImagePoint,
		Color:      v.Throughput.MultiplyVec(v.Emitted),
	}
}

// splat connects a light prefix straight to the lens and reprojects it
func (j *Joiner) splat(light, eye Node) Contribution {
	x := light.Vertex()
	if x.Delta {
		return Contribution{}
	}
	lens := j.scene.Lens()
	imagePoint, ok := eye.Project(x.Point)
	if !ok {
		return Contribution{}
	}

	toLens := lens.Position().Subtract(x.Point)
	dist2 := toLens.LengthSquared()
	if dist2 == 0 {
		return Contribution{}
	}
	wNext := toLens.Normalize()

	var f core.Vec3
	if x.Kind == LightVertex {
		f = x.Material.Emission(x.Normal, wNext, light.wavelength())
	} else {
		f = x.Material.BSDF(x.Normal, x.Incoming, wNext, true, light.wavelength())
	}

	dirFromLens := wNext.Negate()
	importance := lens.Importance(dirFromLens) * dirFromLens.Dot(lens.Forward())
	g := x.Normal.AbsDot(wNext) * importance / dist2

	return Contribution{
		ImagePoint: imagePoint,
		Color:      x.Throughput.MultiplyVec(f).Multiply(g),
		Splat:      true,
	}
}

// connect joins a light prefix to an eye prefix with at least one scattering vertex
func (j *Joiner) connect(light, eye Node) Contribution {
	x, y := light.Vertex(), eye.Vertex()
	if x.Delta || y.Delta || y.Kind != ScatteringVertex {
		return Contribution{}
	}

	d := y.Point.Subtract(x.Point)
	dist2 := d.LengthSquared()
	if dist2 == 0 {
		return Contribution{}
	}
	xToY := d.Normalize()
	yToX := xToY.Negate()
	wl := eye.wavelength()

	var fx core.Vec3
	if x.Kind == LightVertex {
		fx = x.Material.Emission(x.Normal, xToY, wl)
	} else {
		fx = x.Material.BSDF(x.Normal, x.Incoming, xToY, true, wl)
	}
	if fx.IsZero() {
		return Contribution{}
	}
	fy := y.Material.BSDF(y.Normal, y.Incoming, yToX, false, wl)
	if fy.IsZero() {
		return Contribution{}
	}

	g := x.Normal.AbsDot(xToY) * y.Normal.AbsDot(xToY) / dist2
	if g == 0 || !j.scene.Visibility(x.Point, y.Point) {
		return Contribution{}
	}

	return Contribution{
		ImagePoint: eye.Root().Vertex().ImagePoint,
		Color:      x.Throughput.MultiplyVec(fx).MultiplyVec(fy).MultiplyVec(y.Throughput).Multiply(g),
	}
}

// JoinAll evaluates every truncation of a path and appends the non-zero results to dst
func (j *Joiner) JoinAll(p Path, dst []Contribution) ([]Contribution, error) {
	for l := -1; l <= p.LightLength(); l++ {
		for e := 0; e <= p.EyeLength(); e++ {
			sub, err := p.Slice(l, e)
			if err != nil {
				return dst, err
			}
			c, ok, err := j.Join(sub.Light, sub.Eye)
			if err != nil {
				return dst, err
			}
			if ok {
				dst = append(dst, c)
			}
		}
	}
	return dst, nil
}

func (n Node) wavelength() core.WavelengthPacket {
	return n.tracer.info.Wavelength
}
