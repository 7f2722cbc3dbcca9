package core

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// SurfaceInteraction describes where a ray met a primitive.
// Normal is the geometric normal as the primitive defines it, not flipped toward the ray.
type SurfaceInteraction struct {
	Point    Vec3
	Normal   Vec3
	T        float64
	Material Material
}

// Primitive is anything a ray can hit
type Primitive interface {
	Hit(ray Ray, tMin, tMax float64) (*SurfaceInteraction, bool)
	BoundingBox() AABB
}

// ScatterSample is the result of sampling a material.
// For a diffuse lobe Value is the BSDF and PDF its solid-angle density.
// For a specular lobe Value already folds in the cosine and density, and PDF is 1.
type ScatterSample struct {
	Direction Vec3
	Value     Vec3
	PDF       float64
	Specular  bool
}

// Material evaluates scattering and emission at a surface point.
// Directions point away from the surface: wPrev toward the vertex the path came from,
// wNext toward the vertex it goes to. adjoint is set on light subpaths.
type Material interface {
	Scatter(normal, wPrev Vec3, adjoint bool, wl WavelengthPacket, s Sampler) (ScatterSample, bool)
	BSDF(normal, wPrev, wNext Vec3, adjoint bool, wl WavelengthPacket) Vec3
	Emission(normal, wOut Vec3, wl WavelengthPacket) Vec3
	// ScatteringPDF returns the solid-angle density of sampling wNext given wPrev,
	// and whether the lobe is a delta distribution.
	ScatteringPDF(normal, wPrev, wNext Vec3, adjoint bool) (float64, bool)
}

// Lens is the sensor end of a light transport path.
// Image points live in [0,1)², with y=0 at the top row.
type Lens interface {
	Position() Vec3
	Forward() Vec3
	GenerateRay(imagePoint Vec2) Ray
	// Project maps a world point to the image; false if it falls off the film.
	Project(point Vec3) (Vec2, bool)
	// Importance is the emitted importance We along direction.
	Importance(direction Vec3) float64
	// DirectionPDF is the solid-angle density of GenerateRay for a uniform image point.
	DirectionPDF(direction Vec3) float64
}

// Light is the emitter end of a light transport path
type Light interface {
	SamplePosition(s Sampler) (point, normal Vec3, pdf float64)
	PositionPDF(point Vec3) float64
	SampleDirection(normal Vec3, s Sampler) (direction Vec3, pdf float64)
	DirectionPDF(normal, direction Vec3) float64
	Material() Material
}

// Scene is the view of the world the path tracer needs
type Scene interface {
	Lens() Lens
	Light() Light
	Root() Primitive
	BoundingSphere() (center Vec3, radius float64)
	// Visibility reports whether the segment between p and q is unoccluded.
	Visibility(p, q Vec3) bool
}
