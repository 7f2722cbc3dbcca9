package scene

import (
	"math"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/geometry"
	"github.com/df07/go-mlt/pkg/material"
)

// Lambertian plane parameters. The radiance leaving the plane under the camera
// is PlaneAlbedo·PlaneLightRadiance·F, with F the form factor to the light.
const (
	PlaneAlbedo        = 0.5
	PlaneSize          = 200.0
	PlaneLightSize     = 20.0
	PlaneLightHeight   = 1.0
	PlaneLightRadiance = 1.0
)

// NewLambertianPlaneScene creates a diffuse plane lit by a large parallel square
// light, viewed straight down from between the two. It has a closed-form answer.
func NewLambertianPlaneScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(0, PlaneLightHeight/2, 0),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 0, -1),
		AspectRatio: 1.0,
		VFov:        10.0,
	}
	if len(cameraOverrides) > 0 {
		cameraConfig = mergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	s := &Scene{
		Camera:       geometry.NewCamera(cameraConfig),
		CameraConfig: cameraConfig,
		SamplingConfig: SamplingConfig{
			Width:                     4,
			Height:                    4,
			MaxDepth:                  6,
			RussianRouletteMinBounces: 3,
		},
	}

	plane := NewGroundQuad(core.NewVec3(0, 0, 0), PlaneSize, material.NewLambertian(core.NewVec3(PlaneAlbedo, PlaneAlbedo, PlaneAlbedo)))
	s.Primitives = append(s.Primitives, plane)

	half := PlaneLightSize / 2
	s.AddQuadLight(
		core.NewVec3(-half, PlaneLightHeight, -half),
		core.NewVec3(PlaneLightSize, 0, 0),
		core.NewVec3(0, 0, PlaneLightSize),
		core.NewVec3(PlaneLightRadiance, PlaneLightRadiance, PlaneLightRadiance),
	)

	return s
}

// PlaneRadiance returns the exact radiance leaving the plane directly under the
// light's center: ρ·Le·F, where F sums the corner form factors of the four
// quadrants of the light seen from a differential patch.
func PlaneRadiance() float64 {
	x := PlaneLightSize / 2 / PlaneLightHeight
	y := x
	sx := math.Sqrt(1 + x*x)
	sy := math.Sqrt(1 + y*y)
	corner := (x/sx*math.Atan(y/sx) + y/sy*math.Atan(x/sy)) / (2 * math.Pi)
	return PlaneAlbedo * PlaneLightRadiance * 4 * corner
}
