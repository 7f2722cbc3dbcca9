package geometry

import (
	"math"

	"github.com/df07/go-mlt/pkg/core"
)

// CameraConfig describes a pinhole camera
type CameraConfig struct {
	Center      core.Vec3 // Pinhole position
	LookAt      core.Vec3 // Point the camera looks at
	Up          core.Vec3 // Up direction
	VFov        float64   // Vertical field of view in degrees
	AspectRatio float64   // Width / height
}

// PinholeCamera is a lens with a point aperture and a film at unit distance.
// Image points are in [0,1)² with y=0 at the top of the image.
type PinholeCamera struct {
	config  CameraConfig
	forward core.Vec3
	right   core.Vec3
	up      core.Vec3
	filmW   float64
	filmH   float64
}

// NewCamera creates a pinhole camera from its configuration
func NewCamera(config CameraConfig) *PinholeCamera {
	forward := config.LookAt.Subtract(config.Center).Normalize()
	right := forward.Cross(config.Up).Normalize()
	up := right.Cross(forward)

	filmH := 2 * math.Tan(config.VFov*math.Pi/360)
	return &PinholeCamera{
		config:  config,
		forward: forward,
		right:   right,
		up:      up,
		filmW:   filmH * config.AspectRatio,
		filmH:   filmH,
	}
}

// Position returns the pinhole
func (c *PinholeCamera) Position() core.Vec3 {
	return c.config.Center
}

// Forward returns the viewing axis
func (c *PinholeCamera) Forward() core.Vec3 {
	return c.forward
}

// GenerateRay returns the ray through an image point
func (c *PinholeCamera) GenerateRay(imagePoint core.Vec2) core.Ray {
	dir := c.forward.
		Add(c.right.Multiply((imagePoint.X - 0.5) * c.filmW)).
		Add(c.up.Multiply((0.5 - imagePoint.Y) * c.filmH))
	return core.NewRay(c.config.Center, dir.Normalize())
}

// Project returns the image point a world point is seen at
func (c *PinholeCamera) Project(point core.Vec3) (core.Vec2, bool) {
	return c.projectDirection(point.Subtract(c.config.Center))
}

func (c *PinholeCamera) projectDirection(d core.Vec3) (core.Vec2, bool) {
	z := d.Dot(c.forward)
	if z <= 1e-9 {
		return core.Vec2{}, false
	}
	u := d.Dot(c.right)/(z*c.filmW) + 0.5
	v := 0.5 - d.Dot(c.up)/(z*c.filmH)
	if u < 0 || u >= 1 || v < 0 || v >= 1 {
		return core.Vec2{}, false
	}
	return core.NewVec2(u, v), true
}

// Importance returns We = 1/(A cos⁴θ) for directions that land on the film
func (c *PinholeCamera) Importance(direction core.Vec3) float64 {
	cos, ok := c.filmCosine(direction)
	if !ok {
		return 0
	}
	return 1 / (c.filmW * c.filmH * cos * cos * cos * cos)
}

// DirectionPDF returns the solid-angle density 1/(A cos³θ) of GenerateRay
func (c *PinholeCamera) DirectionPDF(direction core.Vec3) float64 {
	cos, ok := c.filmCosine(direction)
	if !ok {
		return 0
	}
	return 1 / (c.filmW * c.filmH * cos * cos * cos)
}

func (c *PinholeCamera) filmCosine(direction core.Vec3) (float64, bool) {
	d := direction.Normalize()
	if _, ok := c.projectDirection(d); !ok {
		return 0, false
	}
	return d.Dot(c.forward), true
}
