package scene

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/df07/go-mlt/pkg/core"
)

func TestPlaneRadiance(t *testing.T) {
	// 0.5 · 0.99189 for a 20x20 light one unit above the plane
	if got := PlaneRadiance(); math.Abs(got-0.495945) > 1e-4 {
		t.Errorf("Expected plane radiance ≈ 0.495945, got %f", got)
	}
}

func TestScene_Visibility(t *testing.T) {
	s := NewLambertianPlaneScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	tests := []struct {
		name    string
		p, q    core.Vec3
		visible bool
	}{
		{"floor to light", core.NewVec3(0, 0, 0), core.NewVec3(1, PlaneLightHeight, 1), true},
		{"camera to floor", s.Camera.Position(), core.NewVec3(0.01, 0, 0.01), true},
		{"through the floor", core.NewVec3(0, 0.5, 0), core.NewVec3(0, -0.5, 0), false},
		{"through the light", core.NewVec3(0, 0.5, 0), core.NewVec3(0, 2, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Visibility(tt.p, tt.q); got != tt.visible {
				t.Errorf("Visibility(%v, %v) = %v, want %v", tt.p, tt.q, got, tt.visible)
			}
		})
	}
}

func TestScene_CornellLightFacesDown(t *testing.T) {
	s := NewCornellScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if s.QuadLight.Normal.Y >= 0 {
		t.Errorf("Expected ceiling light to face down, got normal %v", s.QuadLight.Normal)
	}

	// A ray straight up from the floor center hits the light
	hit, ok := s.Root().Hit(core.NewRay(core.NewVec3(277.5, 1, 277.5), core.NewVec3(0, 1, 0)), RayEpsilon, math.Inf(1))
	if !ok {
		t.Fatal("Expected upward ray to hit the ceiling light")
	}
	if hit.Material != s.Light().Material() {
		t.Errorf("Expected the light's material at %v", hit.Point)
	}

	center, radius := s.BoundingSphere()
	if radius < 400 || center.Subtract(core.NewVec3(277.5, 277.5, 277.5)).Length() > 1 {
		t.Errorf("Unexpected bounding sphere %v r=%f", center, radius)
	}
}

func TestNewScene(t *testing.T) {
	for _, info := range ListScenes() {
		t.Run(info.ID, func(t *testing.T) {
			s, err := NewScene(info.ID)
			if err != nil {
				t.Fatalf("NewScene(%q) failed: %v", info.ID, err)
			}
			if s.Light() == nil || s.Lens() == nil {
				t.Error("Scene is missing its light or lens")
			}
		})
	}

	if _, err := NewScene("nope"); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestPreprocess_RequiresLight(t *testing.T) {
	s := &Scene{}
	if err := s.Preprocess(); !errors.Is(err, ErrNoLight) {
		t.Errorf("Expected ErrNoLight, got %v", err)
	}
}

func TestScene_RootBuiltOnceAcrossGoroutines(t *testing.T) {
	// No Preprocess: the first concurrent callers build the hierarchy
	s := NewLambertianPlaneScene()

	const workers = 8
	roots := make([]core.Primitive, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			roots[i] = s.Root()
			s.Visibility(core.NewVec3(0, 0, 0), core.NewVec3(0, 0.5, 0))
		}(i)
	}
	wg.Wait()

	for i, root := range roots {
		if root != roots[0] {
			t.Errorf("Worker %d saw a different hierarchy", i)
		}
	}
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if s.Root() != roots[0] {
		t.Error("Preprocess must not rebuild an existing hierarchy")
	}
}
