package scene

import (
	"sync"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/geometry"
	"github.com/df07/go-mlt/pkg/lights"
	"github.com/df07/go-mlt/pkg/material"
)

// RayEpsilon is the minimum ray parameter used to avoid self-intersection
const RayEpsilon = 1e-4

// Scene contains all the elements needed for rendering
type Scene struct {
	Camera         *geometry.PinholeCamera
	CameraConfig   geometry.CameraConfig
	Primitives     []core.Primitive // Objects in the scene, the light quad included
	QuadLight      *lights.QuadLight
	SamplingConfig SamplingConfig
	bvh            *core.BVH // Acceleration structure for ray-object intersection
	bvhOnce        sync.Once
}

// SamplingConfig contains the scene's recommended rendering configuration
type SamplingConfig struct {
	Width                     int // Image width
	Height                    int // Image height
	MaxDepth                  int // Maximum number of scattering events per subpath
	RussianRouletteMinBounces int // Minimum bounces before Russian Roulette can activate
}

// NewGroundQuad creates a horizontal quad centered at the given point with normal (0,1,0)
func NewGroundQuad(center core.Vec3, size float64, mat core.Material) *geometry.Quad {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	// (0,0,size) × (size,0,0) = (0,size²,0)
	u := core.NewVec3(0, 0, size)
	v := core.NewVec3(size, 0, 0)
	return geometry.NewQuad(corner, u, v, mat)
}

// AddQuadLight adds the scene's rectangular area light. A scene has one light.
func (s *Scene) AddQuadLight(corner, u, v core.Vec3, emission core.Vec3) {
	s.QuadLight = lights.NewQuadLight(corner, u, v, material.NewEmissive(emission))
	s.Primitives = append(s.Primitives, s.QuadLight)
}

// Preprocess builds the acceleration structure. It must run before rendering.
func (s *Scene) Preprocess() error {
	if s.QuadLight == nil {
		return ErrNoLight
	}
	s.Root()
	return nil
}

// Lens returns the camera
func (s *Scene) Lens() core.Lens {
	return s.Camera
}

// Light returns the scene's emitter
func (s *Scene) Light() core.Light {
	return s.QuadLight
}

// Root returns the top of the acceleration structure, building it on first use.
// Primitives added after the first call are not seen.
func (s *Scene) Root() core.Primitive {
	s.bvhOnce.Do(func() {
		s.bvh = core.NewBVH(s.Primitives)
	})
	return s.bvh
}

// BoundingSphere returns the sphere enclosing all geometry
func (s *Scene) BoundingSphere() (core.Vec3, float64) {
	return s.Root().BoundingBox().BoundingSphere()
}

// Visibility reports whether nothing blocks the segment between p and q
func (s *Scene) Visibility(p, q core.Vec3) bool {
	d := q.Subtract(p)
	dist := d.Length()
	if dist <= 2*RayEpsilon {
		return true
	}
	_, hit := s.Root().Hit(core.NewRay(p, d.Multiply(1/dist)), RayEpsilon, dist-RayEpsilon)
	return !hit
}
