package integrator

import (
	"fmt"

	"github.com/df07/go-mlt/pkg/core"
)

// ImageSegment is the index of the draw segment holding the image point, for
// sequences that record segment boundaries while a path is generated.
const ImageSegment = 1

// Path pairs the tails of a light subpath and an eye subpath. Either tail may be
// invalid: no light tail means the eye subpath found the emitter on its own.
type Path struct {
	Light Node
	Eye   Node
}

// NewPath builds a path from two tails, truncating tails at infinity to their parent
func NewPath(light, eye Node) Path {
	return Path{Light: finite(light), Eye: finite(eye)}
}

func finite(n Node) Node {
	if !n.Valid() || !n.AtInfinity() {
		return n
	}
	parent, _ := n.Parent()
	return parent
}

// LightLength returns the depth of the light tail, or -1 if there is none
func (p Path) LightLength() int {
	return p.Light.Depth()
}

// EyeLength returns the depth of the eye tail, or -1 if there is none
func (p Path) EyeLength() int {
	return p.Eye.Depth()
}

// Length returns the number of edges of the joined path
func (p Path) Length() int {
	return p.LightLength() + p.EyeLength() + 1
}

// ImagePoint returns where the eye subpath leaves the lens
func (p Path) ImagePoint() core.Vec2 {
	if !p.Eye.Valid() {
		return core.Vec2{}
	}
	return p.Eye.Root().Vertex().ImagePoint
}

// Slice truncates the path to a light prefix of l edges (-1 for none) and an eye
// prefix of e edges
func (p Path) Slice(l, e int) (Path, error) {
	if l < -1 || l > p.LightLength() || e < 0 || e > p.EyeLength() {
		return Path{}, fmt.Errorf("%w: (%d,%d) of (%d,%d)", ErrInvalidSlice, l, e, p.LightLength(), p.EyeLength())
	}
	var out Path
	if l >= 0 {
		out.Light, _ = p.Light.Ancestor(l)
	}
	out.Eye, _ = p.Eye.Ancestor(e)
	return out, nil
}

// PathGenerator draws complete paths from a sampler in a fixed order: the light
// subpath, the image point, then the eye subpath. Recording samplers get a
// segment boundary after each of the three.
type PathGenerator struct {
	tracer     *Tracer
	colorModel core.ColorModel
}

// NewPathGenerator creates a generator on top of a tracer
func NewPathGenerator(tracer *Tracer, colorModel core.ColorModel) *PathGenerator {
	if colorModel == nil {
		colorModel = core.RGBColorModel{}
	}
	return &PathGenerator{tracer: tracer, colorModel: colorModel}
}

// Tracer returns the generator's tracer
func (g *PathGenerator) Tracer() *Tracer {
	return g.tracer
}

// Generate resets the arena and draws a new path. The returned color weight
// scales every contribution of the path.
func (g *PathGenerator) Generate(s core.Sampler) (Path, core.Vec3) {
	g.tracer.Reset()
	weight, wavelength := g.colorModel.Sample(s)
	g.tracer.SetWavelength(wavelength)

	light := g.tracer.TraceLightPath(s)
	core.MarkSegment(s)

	imagePoint := s.Get2D()
	core.MarkSegment(s)

	eye := g.tracer.TraceEyePath(imagePoint, s)
	core.MarkSegment(s)

	return NewPath(light, eye), weight
}
