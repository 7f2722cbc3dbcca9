package material

import (
	"github.com/df07/go-mlt/pkg/core"
)

// Metal is a perfect mirror. Its single lobe is a delta distribution, so it
// can never be the endpoint of a connection.
type Metal struct {
	Albedo core.Vec3
}

// NewMetal creates a new mirror material
func NewMetal(albedo core.Vec3) *Metal {
	return &Metal{Albedo: albedo}
}

// Scatter reflects wPrev about the normal
func (m *Metal) Scatter(normal, wPrev core.Vec3, adjoint bool, wl core.WavelengthPacket, sampler core.Sampler) (core.ScatterSample, bool) {
	n, ok := facing(normal, wPrev)
	if !ok {
		return core.ScatterSample{}, false
	}

	return core.ScatterSample{
		Direction: wPrev.Negate().Reflect(n),
		Value:     m.Albedo, // No cosine or π factor for a delta lobe
		PDF:       1,
		Specular:  true,
	}, true
}

// BSDF is zero for any explicitly chosen pair of directions
func (m *Metal) BSDF(normal, wPrev, wNext core.Vec3, adjoint bool, wl core.WavelengthPacket) core.Vec3 {
	return core.Vec3{}
}

// Emission is always zero
func (m *Metal) Emission(normal, wOut core.Vec3, wl core.WavelengthPacket) core.Vec3 {
	return core.Vec3{}
}

// ScatteringPDF reports a delta lobe
func (m *Metal) ScatteringPDF(normal, wPrev, wNext core.Vec3, adjoint bool) (float64, bool) {
	return 0, true
}
