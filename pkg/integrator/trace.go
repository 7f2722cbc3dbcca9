package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-mlt/pkg/core"
)

// rayEpsilon is the minimum hit distance, to avoid self-intersection
const rayEpsilon = 1e-4

// PathInfo configures subpath construction
type PathInfo struct {
	MaxDepth      int                   // Maximum number of edges per subpath
	RouletteDepth int                   // Depth after which Russian roulette may terminate a subpath
	Wavelength    core.WavelengthPacket // Spectral sample carried by the path
}

// DefaultPathInfo returns a configuration suitable for most scenes
func DefaultPathInfo() PathInfo {
	return PathInfo{
		MaxDepth:      12,
		RouletteDepth: 4,
	}
}

// Validate checks the configuration
func (p PathInfo) Validate() error {
	if p.MaxDepth < 1 {
		return fmt.Errorf("%w: max depth %d must be at least 1", ErrInvalidConfig, p.MaxDepth)
	}
	if p.RouletteDepth < 0 {
		return fmt.Errorf("%w: roulette depth %d must not be negative", ErrInvalidConfig, p.RouletteDepth)
	}
	return nil
}

// Tracer builds eye and light subpaths in its own arena.
// A Tracer is not safe for concurrent use; each task owns one.
type Tracer struct {
	scene core.Scene
	info  PathInfo
	arena Arena
}

// NewTracer creates a tracer for a scene
func NewTracer(scene core.Scene, info PathInfo) *Tracer {
	return &Tracer{
		scene: scene,
		info:  info,
		arena: Arena{vertices: make([]Vertex, 0, 4*(info.MaxDepth+1))},
	}
}

// Scene returns the traced scene
func (t *Tracer) Scene() core.Scene {
	return t.scene
}

// Info returns the path configuration
func (t *Tracer) Info() PathInfo {
	return t.info
}

// SetWavelength selects the spectral sample carried by paths traced from now on
func (t *Tracer) SetWavelength(wl core.WavelengthPacket) {
	t.info.Wavelength = wl
}

// Reset invalidates every node handed out so far and reuses the arena
func (t *Tracer) Reset() {
	t.arena.Reset()
}

// Arena exposes the vertex storage, mainly for inspection
func (t *Tracer) Arena() *Arena {
	return &t.arena
}

// EyeRoot places a lens vertex for the given image point
func (t *Tracer) EyeRoot(imagePoint core.Vec2) Node {
	idx := t.arena.add(Vertex{
		Kind:       EyeVertex,
		Parent:     -1,
		Point:      t.scene.Lens().Position(),
		Throughput: core.NewVec3(1, 1, 1),
		ImagePoint: imagePoint,
	})
	return Node{tracer: t, index: idx}
}

// LightRoot samples a point on the emitter. It fails if the sample has no density.
func (t *Tracer) LightRoot(s core.Sampler) (Node, bool) {
	light := t.scene.Light()
	point, normal, pdf := light.SamplePosition(s)
	if pdf <= 0 {
		return Node{}, false
	}
	idx := t.arena.add(Vertex{
		Kind:       LightVertex,
		Parent:     -1,
		Point:      point,
		Normal:     normal,
		OnLight:    true,
		FromLight:  true,
		Material:   light.Material(),
		Throughput: core.NewVec3(1, 1, 1).Multiply(1 / pdf),
	})
	return Node{tracer: t, index: idx}, true
}

// TraceEyePath traces a full eye subpath through an image point and returns its tail.
// The tail may be at infinity.
func (t *Tracer) TraceEyePath(imagePoint core.Vec2, s core.Sampler) Node {
	return t.extend(t.EyeRoot(imagePoint), s)
}

// TraceLightPath traces a full light subpath and returns its tail, or an invalid
// node if no emitter point could be sampled.
func (t *Tracer) TraceLightPath(s core.Sampler) Node {
	root, ok := t.LightRoot(s)
	if !ok {
		return Node{}
	}
	return t.extend(root, s)
}

func (t *Tracer) extend(node Node, s core.Sampler) Node {
	for !node.AtInfinity() {
		next, ok := t.expand(node, s)
		if !ok {
			break
		}
		node = next
	}
	return node
}

// expand samples a direction at node, follows it and records the vertex it reaches
func (t *Tracer) expand(node Node, s core.Sampler) (Node, bool) {
	if !node.Valid() {
		return Node{}, false
	}
	v := *node.Vertex()
	if v.AtInfinity || v.Depth >= t.info.MaxDepth {
		return Node{}, false
	}

	var direction core.Vec3
	var multiplier core.Vec3

	switch v.Kind {
	case EyeVertex:
		lens := t.scene.Lens()
		ray := lens.GenerateRay(v.ImagePoint)
		direction = ray.Direction
		pdf := lens.DirectionPDF(direction)
		if pdf <= 0 {
			return Node{}, false
		}
		weight := lens.Importance(direction) * direction.Dot(lens.Forward()) / pdf
		multiplier = core.NewVec3(weight, weight, weight)

	case LightVertex:
		light := t.scene.Light()
		var pdf float64
		direction, pdf = light.SampleDirection(v.Normal, s)
		if pdf <= 0 {
			return Node{}, false
		}
		emitted := v.Material.Emission(v.Normal, direction, t.info.Wavelength)
		multiplier = emitted.Multiply(v.Normal.AbsDot(direction) / pdf)

	default:
		sample, ok := v.Material.Scatter(v.Normal, v.Incoming, v.FromLight, t.info.Wavelength, s)
		if !ok {
			return Node{}, false
		}
		direction = sample.Direction
		if sample.Specular {
			multiplier = sample.Value
		} else {
			if sample.PDF <= 0 {
				return Node{}, false
			}
			multiplier = sample.Value.Multiply(v.Normal.AbsDot(direction) / sample.PDF)
		}

		if v.Depth+1 > t.info.RouletteDepth {
			q := math.Max(0.05, math.Min(1, multiplier.Luminance()))
			if s.Get1D() >= q {
				return Node{}, false
			}
			multiplier = multiplier.Multiply(1 / q)
		}
	}

	if multiplier.IsZero() {
		return Node{}, false
	}

	child := Vertex{
		Kind:       ScatteringVertex,
		Depth:      v.Depth + 1,
		Parent:     node.index,
		Incoming:   direction.Negate(),
		FromLight:  v.FromLight,
		Throughput: v.Throughput.MultiplyVec(multiplier),
	}

	hit, ok := t.scene.Root().Hit(core.NewRay(v.Point, direction), rayEpsilon, math.Inf(1))
	if !ok {
		child.AtInfinity = true
		child.Point = v.Point.Add(direction)
		return Node{tracer: t, index: t.arena.add(child)}, true
	}

	child.Point = hit.Point
	child.Normal = hit.Normal
	child.Material = hit.Material
	child.OnLight = hit.Material == t.scene.Light().Material()
	child.Emitted = hit.Material.Emission(hit.Normal, child.Incoming, t.info.Wavelength)
	_, child.Delta = hit.Material.ScatteringPDF(hit.Normal, child.Incoming, child.Incoming, child.FromLight)

	return Node{tracer: t, index: t.arena.add(child)}, true
}
