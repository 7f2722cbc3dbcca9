package material

import (
	"github.com/df07/go-mlt/pkg/core"
)

// Emissive represents a one-sided light-emitting material that reflects nothing
type Emissive struct {
	Radiance core.Vec3 // Emitted radiance along the front side
}

// NewEmissive creates a new emissive material
func NewEmissive(radiance core.Vec3) *Emissive {
	return &Emissive{Radiance: radiance}
}

// Scatter never scatters: emitters absorb all incoming light
func (e *Emissive) Scatter(normal, wPrev core.Vec3, adjoint bool, wl core.WavelengthPacket, sampler core.Sampler) (core.ScatterSample, bool) {
	return core.ScatterSample{}, false
}

// BSDF is zero
func (e *Emissive) BSDF(normal, wPrev, wNext core.Vec3, adjoint bool, wl core.WavelengthPacket) core.Vec3 {
	return core.Vec3{}
}

// Emission returns the radiance for directions on the front side of the surface
func (e *Emissive) Emission(normal, wOut core.Vec3, wl core.WavelengthPacket) core.Vec3 {
	if normal.Dot(wOut) <= 0 {
		return core.Vec3{}
	}
	return e.Radiance
}

// ScatteringPDF is zero
func (e *Emissive) ScatteringPDF(normal, wPrev, wNext core.Vec3, adjoint bool) (float64, bool) {
	return 0, false
}
