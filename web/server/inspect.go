package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/geometry"
	"github.com/df07/go-mlt/pkg/lights"
	"github.com/df07/go-mlt/pkg/material"
	"github.com/df07/go-mlt/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	Delta        bool                   `json:"delta"` // Mirror-like surface; never a connection endpoint
	Properties   map[string]interface{} `json:"properties"`
}

// extractMaterialInfo describes a material with type assertions
func extractMaterialInfo(mat core.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = [3]float64{m.Albedo.X, m.Albedo.Y, m.Albedo.Z}
		properties["color"] = fmt.Sprintf("#%02x%02x%02x",
			int(math.Min(1, m.Albedo.X)*255), int(math.Min(1, m.Albedo.Y)*255), int(math.Min(1, m.Albedo.Z)*255))
		return "lambertian", properties
	case *material.Metal:
		properties["albedo"] = [3]float64{m.Albedo.X, m.Albedo.Y, m.Albedo.Z}
		return "metal", properties
	case *material.Emissive:
		properties["radiance"] = [3]float64{m.Radiance.X, m.Radiance.Y, m.Radiance.Z}
		return "emissive", properties
	default:
		return "unknown", properties
	}
}

// extractGeometryInfo describes a primitive
func extractGeometryInfo(prim core.Primitive) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := prim.(type) {
	case *geometry.Sphere:
		properties["center"] = [3]float64{geom.Center.X, geom.Center.Y, geom.Center.Z}
		properties["radius"] = geom.Radius
		return "sphere", properties
	case *lights.QuadLight:
		properties["corner"] = [3]float64{geom.Corner.X, geom.Corner.Y, geom.Corner.Z}
		properties["area"] = geom.Area()
		return "quad-light", properties
	case *geometry.Quad:
		properties["corner"] = [3]float64{geom.Corner.X, geom.Corner.Y, geom.Corner.Z}
		properties["u"] = [3]float64{geom.U.X, geom.U.Y, geom.U.Z}
		properties["v"] = [3]float64{geom.V.X, geom.V.Y, geom.V.Z}
		properties["area"] = geom.Area()
		return "quad", properties
	default:
		return "unknown", properties
	}
}

// inspectPixel casts the eye ray through a pixel center and describes the first hit
func inspectPixel(sceneObj *scene.Scene, width, height, pixelX, pixelY int) InspectResponse {
	imagePoint := core.NewVec2((float64(pixelX)+0.5)/float64(width), (float64(pixelY)+0.5)/float64(height))
	ray := sceneObj.Camera.GenerateRay(imagePoint)

	hit, isHit := sceneObj.Root().Hit(ray, scene.RayEpsilon, math.Inf(1))
	if !isHit {
		return InspectResponse{Hit: false}
	}

	// The hierarchy does not say which primitive was hit, so find the one
	// reporting the same distance
	var prim core.Primitive
	for _, p := range sceneObj.Primitives {
		if h, ok := p.Hit(ray, scene.RayEpsilon, hit.T+scene.RayEpsilon); ok && h.T == hit.T {
			prim = p
			break
		}
	}

	materialType, materialProps := extractMaterialInfo(hit.Material)
	geometryType, geometryProps := extractGeometryInfo(prim)
	wPrev := ray.Direction.Negate()
	_, delta := hit.Material.ScatteringPDF(hit.Normal, wPrev, wPrev, false)

	return InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        [3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z},
		Normal:       [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance:     hit.T,
		Delta:        delta,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	inspectReq := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid y coordinate"})
		return
	}
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	sceneObj, err := scene.NewScene(inspectReq.Scene)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(inspectPixel(sceneObj, inspectReq.Width, inspectReq.Height, pixelX, pixelY))
}
