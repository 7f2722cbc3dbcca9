package geometry

import (
	"fmt"
	"math"
	"testing"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/material"
)

func unitFloorQuad() *Quad {
	// 1x1 quad in the XZ plane at y=0
	return NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1), material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
}

func TestQuad_Hit_BasicIntersection(t *testing.T) {
	quad := unitFloorQuad()
	ray := core.NewRay(core.NewVec3(0.5, 1, 0.5), core.NewVec3(0, -1, 0))

	hit, isHit := quad.Hit(ray, 0.001, 1000.0)
	if !isHit {
		t.Fatal("Expected hit, but got miss")
	}
	if math.Abs(hit.T-1.0) > 1e-9 {
		t.Errorf("Expected t=1, got t=%f", hit.T)
	}
	if hit.Point.Subtract(core.NewVec3(0.5, 0, 0.5)).Length() > 1e-9 {
		t.Errorf("Expected hit point (0.5,0,0.5), got %v", hit.Point)
	}
	// U × V for X and Z edges points down
	if hit.Normal.Subtract(core.NewVec3(0, -1, 0)).Length() > 1e-9 {
		t.Errorf("Expected normal (0,-1,0), got %v", hit.Normal)
	}
}

func TestQuad_Hit_OutsideBounds(t *testing.T) {
	quad := unitFloorQuad()

	origins := []core.Vec3{
		core.NewVec3(-0.5, 1, 0.5),
		core.NewVec3(1.5, 1, 0.5),
		core.NewVec3(0.5, 1, -0.5),
		core.NewVec3(0.5, 1, 1.5),
	}
	for i, origin := range origins {
		t.Run(fmt.Sprintf("outside_%d", i), func(t *testing.T) {
			if _, isHit := quad.Hit(core.NewRay(origin, core.NewVec3(0, -1, 0)), 0.001, 1000.0); isHit {
				t.Errorf("Expected miss from %v", origin)
			}
		})
	}
}

func TestQuad_Hit_CornerHits(t *testing.T) {
	quad := unitFloorQuad()

	corners := []core.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 1, Y: 0, Z: 1},
	}
	for i, cornerPoint := range corners {
		t.Run(fmt.Sprintf("corner_%d", i), func(t *testing.T) {
			ray := core.NewRay(cornerPoint.Add(core.NewVec3(0, 1, 0)), core.NewVec3(0, -1, 0))
			if _, isHit := quad.Hit(ray, 0.001, 1000.0); !isHit {
				t.Errorf("Expected hit at corner %v, but got miss", cornerPoint)
			}
		})
	}
}

func TestQuad_Hit_ParallelRay(t *testing.T) {
	quad := unitFloorQuad()
	ray := core.NewRay(core.NewVec3(0.5, 1, 0.5), core.NewVec3(1, 0, 0))

	if _, isHit := quad.Hit(ray, 0.001, 1000.0); isHit {
		t.Error("Expected miss for parallel ray, but got hit")
	}
}

func TestQuad_AreaAndSurface(t *testing.T) {
	quad := NewQuad(core.NewVec3(5, 0, 0), core.NewVec3(0, 2, 0), core.NewVec3(0, 0, 3), nil)

	if math.Abs(quad.Area()-6) > 1e-12 {
		t.Errorf("Expected area 6, got %f", quad.Area())
	}
	if !quad.OnSurface(quad.PointAt(core.NewVec2(0.25, 0.75))) {
		t.Error("Sampled point should lie on the quad")
	}
	if quad.OnSurface(core.NewVec3(5.1, 1, 1)) {
		t.Error("Point off the plane reported on surface")
	}

	bbox := quad.BoundingBox()
	if bbox.Max.X <= bbox.Min.X {
		t.Errorf("Flat quad bounding box must have thickness, got %v", bbox)
	}
}
