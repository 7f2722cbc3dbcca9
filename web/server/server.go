package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-mlt/pkg/scene"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server handles web requests for the renderer
type Server struct {
	port int
	mux  *http.ServeMux
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	s := &Server{port: port, mux: http.NewServeMux()}

	// Serve static files
	s.mux.Handle("/", http.FileServer(http.Dir("static/")))

	// API endpoints
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene          string  `json:"scene"`          // Scene ID (e.g., "cornell")
	Mode           string  `json:"mode"`           // "bdpt" or "mlt"
	Width          int     `json:"width"`          // Image width
	Height         int     `json:"height"`         // Image height
	MaxDepth       int     `json:"maxDepth"`       // Maximum scattering events per subpath
	RRMinBounces   int     `json:"rrMinBounces"`   // Depth after which Russian roulette may stop a subpath
	Tasks          int     `json:"tasks"`          // Render or mutation tasks
	Seed           int64   `json:"seed"`           // Base seed
	Exposure       float64 `json:"exposure"`       // Display exposure multiplier
	Scale          int     `json:"scale"`          // Preview upscaling factor
	EyePaths       int     `json:"eyePaths"`       // Eye paths per pixel (bdpt)
	LightPaths     int     `json:"lightPaths"`     // Light paths per eye path (bdpt)
	InitialSamples int     `json:"initialSamples"` // Seed pool size (mlt)
	Seeds          int     `json:"seeds"`          // Number of chains (mlt)
	Mutations      int     `json:"mutations"`      // Mutations per pixel (mlt)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(scene.ListScenes())
}

// parseCommonSceneParams parses the scene and image size shared by render and inspect
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()
	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = "cornell" // Default scene
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, 1, 2000); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", 400, 1, 2000); err != nil {
		return err
	}
	return nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	req.Mode = query.Get("mode")
	switch req.Mode {
	case "":
		req.Mode = "bdpt"
	case "bdpt", "mlt":
	default:
		return nil, fmt.Errorf("mode must be bdpt or mlt, got: %s", req.Mode)
	}

	var err error
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", 12, 1, 100); err != nil {
		return nil, err
	}
	if req.RRMinBounces, err = parseIntParam(query, "rrMinBounces", 4, 0, 100); err != nil {
		return nil, err
	}
	if req.Tasks, err = parseIntParam(query, "tasks", 16, 1, 10000); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(query, "seed", 1, 0, 1<<30)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)
	if req.Exposure, err = parseFloatParam(query, "exposure", 1, 0.01, 100); err != nil {
		return nil, err
	}
	if req.Scale, err = parseIntParam(query, "scale", 1, 1, 64); err != nil {
		return nil, err
	}
	if req.EyePaths, err = parseIntParam(query, "eyePaths", 16, 1, 10000); err != nil {
		return nil, err
	}
	if req.LightPaths, err = parseIntParam(query, "lightPaths", 1, 1, 64); err != nil {
		return nil, err
	}
	if req.InitialSamples, err = parseIntParam(query, "initialSamples", 100000, 1, 10000000); err != nil {
		return nil, err
	}
	if req.Seeds, err = parseIntParam(query, "seeds", 512, 1, 100000); err != nil {
		return nil, err
	}
	if req.Mutations, err = parseIntParam(query, "mutations", 16, 1, 10000); err != nil {
		return nil, err
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && (req.EyePaths > 100 || req.Mutations > 100) {
		log.Printf("Render warning: Large image with high sample counts may render slowly")
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %f and %f, got: %f", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
