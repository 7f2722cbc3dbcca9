package geometry

import (
	"math"

	"github.com/df07/go-mlt/pkg/core"
)

// Quad represents a parallelogram defined by a corner and two edge vectors
type Quad struct {
	Corner   core.Vec3     // One corner of the quad
	U        core.Vec3     // First edge vector
	V        core.Vec3     // Second edge vector
	Normal   core.Vec3     // Unit normal along U × V
	Material core.Material // Material of the quad
	D        float64       // Plane equation constant: normal · p = D
	W        core.Vec3     // Cached vector for barycentric coordinates
	area     float64
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3, material core.Material) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()

	return &Quad{
		Corner:   corner,
		U:        u,
		V:        v,
		Normal:   normal,
		Material: material,
		D:        normal.Dot(corner),
		W:        cross.Multiply(1.0 / cross.Dot(cross)),
		area:     cross.Length(),
	}
}

// Hit tests if a ray intersects with the quad. The reported normal is the quad's
// own normal regardless of which side was hit.
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (*core.SurfaceInteraction, bool) {
	denominator := ray.Direction.Dot(q.Normal)
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}

	t := (q.D - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	point := ray.At(t)
	if !q.contains(point) {
		return nil, false
	}

	return &core.SurfaceInteraction{
		Point:    point,
		Normal:   q.Normal,
		T:        t,
		Material: q.Material,
	}, true
}

// contains reports whether a point on the quad's plane lies within its edges
func (q *Quad) contains(point core.Vec3) bool {
	hitVector := point.Subtract(q.Corner)
	alpha := q.W.Dot(hitVector.Cross(q.V))
	beta := q.W.Dot(q.U.Cross(hitVector))
	return alpha >= 0 && alpha <= 1 && beta >= 0 && beta <= 1
}

// OnSurface reports whether point lies on the quad, within a small tolerance of its plane
func (q *Quad) OnSurface(point core.Vec3) bool {
	if math.Abs(q.Normal.Dot(point)-q.D) > 1e-6*math.Max(1, math.Abs(q.D)) {
		return false
	}
	return q.contains(point)
}

// BoundingBox returns the quad's bounds, padded so flat quads have volume
func (q *Quad) BoundingBox() core.AABB {
	return core.NewAABBFromPoints(
		q.Corner,
		q.Corner.Add(q.U),
		q.Corner.Add(q.V),
		q.Corner.Add(q.U).Add(q.V),
	).Expand(1e-4)
}

// Area returns the surface area of the quad
func (q *Quad) Area() float64 {
	return q.area
}

// PointAt maps a sample in [0,1)² uniformly onto the quad
func (q *Quad) PointAt(sample core.Vec2) core.Vec3 {
	return q.Corner.Add(q.U.Multiply(sample.X)).Add(q.V.Multiply(sample.Y))
}
