package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/df07/go-mlt/pkg/scene"
)

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := get(t, NewServer(0), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestServer_Scenes(t *testing.T) {
	rec := get(t, NewServer(0), "/api/scenes")
	var scenes []scene.SceneInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &scenes); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(scenes) != len(scene.ListScenes()) {
		t.Errorf("Expected %d scenes, got %d", len(scene.ListScenes()), len(scenes))
	}
}

func TestParseRenderRequest(t *testing.T) {
	s := NewServer(0)
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"defaults", "", false},
		{"metropolis", "?mode=mlt&seeds=16&mutations=4", false},
		{"unknown mode", "?mode=pt", true},
		{"zero width", "?width=0", true},
		{"bad exposure", "?exposure=abc", true},
		{"too many light paths", "?lightPaths=1000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := s.parseRenderRequest(httptest.NewRequest(http.MethodGet, "/api/render"+tt.query, nil))
			if tt.wantErr {
				if err == nil {
					t.Error("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if req.Scene != "cornell" || req.Width != 400 {
				t.Errorf("Expected defaults to be filled in, got %+v", req)
			}
		})
	}
}

func TestServer_RenderStream(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bidirectional", "mode=bdpt&eyePaths=4&tasks=2"},
		{"metropolis", "mode=mlt&initialSamples=200&seeds=4&mutations=8&tasks=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0)
			rec := get(t, s, "/api/render?scene=plane&width=4&height=4&scale=2&maxDepth=4&"+tt.query)
			body := rec.Body.String()

			if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
				t.Errorf("Expected an event stream, got %q", ct)
			}
			if strings.Contains(body, "event: error") {
				t.Fatalf("Render reported an error:\n%s", body)
			}
			if strings.Count(body, "event: progress") < 2 {
				t.Errorf("Expected a progress event per merged task:\n%s", body)
			}
			if !strings.Contains(body, "event: complete") {
				t.Errorf("Expected a completion event:\n%s", body)
			}

			metrics := get(t, s, "/metrics").Body.String()
			if !strings.Contains(metrics, "mlt_tasks_completed_total") {
				t.Error("Expected task metrics to be exported")
			}
		})
	}
}

func TestServer_RenderRejectsBadRequest(t *testing.T) {
	body := get(t, NewServer(0), "/api/render?scene=plane&mode=pt").Body.String()
	if !strings.Contains(body, "event: error") || !strings.Contains(body, "Invalid request") {
		t.Errorf("Expected an error event, got:\n%s", body)
	}

	body = get(t, NewServer(0), "/api/render?scene=nowhere&width=4&height=4").Body.String()
	if !strings.Contains(body, "event: error") || !strings.Contains(body, "unknown scene") {
		t.Errorf("Expected an unknown scene error, got:\n%s", body)
	}
}

func TestServer_Inspect(t *testing.T) {
	s := NewServer(0)

	rec := get(t, s, "/api/inspect?scene=plane&width=4&height=4&x=2&y=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp InspectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !resp.Hit || resp.MaterialType != "lambertian" || resp.GeometryType != "quad" || resp.Delta {
		t.Errorf("Expected a non-delta hit on the diffuse plane, got %+v", resp)
	}
	if math.Abs(resp.Point[1]) > 1e-9 {
		t.Errorf("Expected the hit to lie on the plane, got %v", resp.Point)
	}

	tests := []struct {
		name  string
		query string
	}{
		{"out of bounds", "scene=plane&width=4&height=4&x=4&y=0"},
		{"missing y", "scene=plane&x=1"},
		{"unknown scene", "scene=nowhere&x=1&y=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := get(t, s, "/api/inspect?"+tt.query); rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}
