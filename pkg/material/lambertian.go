package material

import (
	"math"

	"github.com/df07/go-mlt/pkg/core"
)

// Lambertian represents a perfectly diffuse, two-sided material
type Lambertian struct {
	Albedo core.Vec3
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter samples a cosine-weighted direction on the side wPrev arrived from
func (l *Lambertian) Scatter(normal, wPrev core.Vec3, adjoint bool, wl core.WavelengthPacket, sampler core.Sampler) (core.ScatterSample, bool) {
	n, ok := facing(normal, wPrev)
	if !ok {
		return core.ScatterSample{}, false
	}

	direction := core.SampleCosineHemisphere(n, sampler.Get2D())
	pdf := core.CosineHemispherePDF(n, direction)
	if pdf <= 0 {
		return core.ScatterSample{}, false
	}

	return core.ScatterSample{
		Direction: direction,
		Value:     l.Albedo.Multiply(1.0 / math.Pi),
		PDF:       pdf,
	}, true
}

// BSDF is albedo/π when both directions are on the same side, zero otherwise
func (l *Lambertian) BSDF(normal, wPrev, wNext core.Vec3, adjoint bool, wl core.WavelengthPacket) core.Vec3 {
	if !sameSide(normal, wPrev, wNext) {
		return core.Vec3{}
	}
	return l.Albedo.Multiply(1.0 / math.Pi)
}

// Emission is always zero for a reflector
func (l *Lambertian) Emission(normal, wOut core.Vec3, wl core.WavelengthPacket) core.Vec3 {
	return core.Vec3{}
}

// ScatteringPDF returns |cosθ|/π on the side wPrev arrived from
func (l *Lambertian) ScatteringPDF(normal, wPrev, wNext core.Vec3, adjoint bool) (float64, bool) {
	if !sameSide(normal, wPrev, wNext) {
		return 0, false
	}
	return normal.AbsDot(wNext) / math.Pi, false
}

// facing flips the normal toward w. It fails for directions in the tangent plane.
func facing(normal, w core.Vec3) (core.Vec3, bool) {
	cos := normal.Dot(w)
	switch {
	case cos > 0:
		return normal, true
	case cos < 0:
		return normal.Negate(), true
	default:
		return core.Vec3{}, false
	}
}

func sameSide(normal, a, b core.Vec3) bool {
	return normal.Dot(a)*normal.Dot(b) > 0
}
