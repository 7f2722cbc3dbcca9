package lights

import (
	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/geometry"
)

// QuadLight represents a one-sided rectangular area light. It emits along the
// quad's normal and doubles as the primitive that makes the light visible.
type QuadLight struct {
	*geometry.Quad // Embed quad for hit testing
}

// NewQuadLight creates a new quad light
func NewQuadLight(corner, u, v core.Vec3, material core.Material) *QuadLight {
	return &QuadLight{Quad: geometry.NewQuad(corner, u, v, material)}
}

// SamplePosition samples a point uniformly over the quad surface
func (ql *QuadLight) SamplePosition(sampler core.Sampler) (core.Vec3, core.Vec3, float64) {
	return ql.PointAt(sampler.Get2D()), ql.Normal, 1.0 / ql.Area()
}

// PositionPDF returns the area density of SamplePosition
func (ql *QuadLight) PositionPDF(point core.Vec3) float64 {
	if !ql.OnSurface(point) {
		return 0
	}
	return 1.0 / ql.Area()
}

// SampleDirection samples a cosine-weighted emission direction on the front side
func (ql *QuadLight) SampleDirection(normal core.Vec3, sampler core.Sampler) (core.Vec3, float64) {
	direction := core.SampleCosineHemisphere(normal, sampler.Get2D())
	return direction, core.CosineHemispherePDF(normal, direction)
}

// DirectionPDF returns the solid-angle density of SampleDirection
func (ql *QuadLight) DirectionPDF(normal, direction core.Vec3) float64 {
	return core.CosineHemispherePDF(normal, direction)
}

// Material returns the emissive material of the light surface
func (ql *QuadLight) Material() core.Material {
	return ql.Quad.Material
}
