package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/integrator"
	"github.com/df07/go-mlt/pkg/renderer"
	"github.com/df07/go-mlt/pkg/scene"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// ProgressUpdate is sent every time a task result is merged into the image
type ProgressUpdate struct {
	Update     int    `json:"update"`    // 1-based count of merged results
	Width      int    `json:"width"`     // Raster width
	Height     int    `json:"height"`    // Raster height
	ImageData  string `json:"imageData"` // Base64 encoded PNG of the whole image
	IsComplete bool   `json:"isComplete"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

// CompleteUpdate is sent once when a render finishes
type CompleteUpdate struct {
	Stats            string  `json:"stats"`
	SamplesPerSecond float64 `json:"samplesPerSecond"`
	ElapsedMs        int64   `json:"elapsedMs"`
}

// streamDisplay forwards every accumulated image to the SSE stream
type streamDisplay struct {
	*renderer.ImageDisplay
	ctx    context.Context
	events chan<- SSEEvent
	scale  int
	start  time.Time

	mu      sync.Mutex
	updates int
}

func newStreamDisplay(ctx context.Context, events chan<- SSEEvent, exposure float64, scale int) *streamDisplay {
	return &streamDisplay{
		ImageDisplay: renderer.NewImageDisplay(exposure),
		ctx:          ctx,
		events:       events,
		scale:        scale,
		start:        time.Now(),
	}
}

// SetPixels updates the image and sends it to the client
func (d *streamDisplay) SetPixels(x, y int, r *renderer.Raster) {
	d.ImageDisplay.SetPixels(x, y, r)
	d.send(false)
}

// Finish marks the image final and sends it once more
func (d *streamDisplay) Finish() {
	d.ImageDisplay.Finish()
	d.send(true)
}

func (d *streamDisplay) send(final bool) {
	d.mu.Lock()
	d.updates++
	update := d.updates
	d.mu.Unlock()

	img := d.Preview(d.scale)
	imageData, err := imageToBase64PNG(img)
	if err != nil {
		log.Printf("Error encoding preview: %v", err)
		return
	}
	data, err := json.Marshal(ProgressUpdate{
		Update:     update,
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		ImageData:  imageData,
		IsComplete: final,
		ElapsedMs:  time.Since(d.start).Milliseconds(),
	})
	if err != nil {
		log.Printf("Error marshaling progress update: %v", err)
		return
	}

	select {
	case d.events <- SSEEvent{Type: "progress", Data: string(data)}:
	case <-d.ctx.Done():
	}
}

// handleRender streams a render to the client via SSE, one image per merged task
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		s.writeSSEEvents(w, ctx, sseEventChan)
		close(writerDone)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Console messages stop before the event channel closes
	consoleCtx, stopConsole := context.WithCancel(ctx)
	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		s.streamConsoleMessages(consoleCtx, consoleChan, sseEventChan)
		close(consoleDone)
	}()
	defer func() {
		stopConsole()
		<-consoleDone
	}()

	display := newStreamDisplay(ctx, sseEventChan, req.Exposure, req.Scale)
	job, err := s.setupJob(req, display, webLogger)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	startTime := time.Now()
	stats, err := renderer.NewRunner(job, 0, webLogger).Run(ctx)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}
	webLogger.Printf("Render complete: %v\n", stats)

	data, err := json.Marshal(CompleteUpdate{
		Stats:            stats.String(),
		SamplesPerSecond: stats.SamplesPerSecond(),
		ElapsedMs:        time.Since(startTime).Milliseconds(),
	})
	if err != nil {
		log.Printf("Error marshaling completion: %v", err)
		return
	}
	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: string(data)}:
	case <-ctx.Done():
	}
}

// setupJob builds the scene and the requested job
func (s *Server) setupJob(req *RenderRequest, display renderer.Display, logger core.Logger) (renderer.Job, error) {
	sceneObj, err := scene.NewScene(req.Scene)
	if err != nil {
		return nil, err
	}
	info := integrator.PathInfo{MaxDepth: req.MaxDepth, RouletteDepth: req.RRMinBounces}

	if req.Mode == "mlt" {
		config := renderer.DefaultMetropolisConfig()
		config.Width, config.Height = req.Width, req.Height
		config.InitialSamples = req.InitialSamples
		config.SeedTasks = req.Tasks
		config.NumSeeds = req.Seeds
		config.Mutations = req.Width * req.Height * req.Mutations
		config.MutationTasks = req.Tasks
		config.PathInfo = info
		config.Seed = req.Seed
		return renderer.NewMetropolisJob(sceneObj, config, display, logger)
	}

	config := renderer.DefaultBidiConfig()
	config.Width, config.Height = req.Width, req.Height
	config.EyePathsPerPixel = req.EyePaths
	config.LightPathsPerEyePath = req.LightPaths
	config.NumTasks = req.Tasks
	config.PathInfo = info
	config.Seed = req.Seed
	return renderer.NewBidiJob(sceneObj, config, display, logger)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// writeSSEEvents writes every SSE event from a single goroutine until the
// channel closes or the client goes away
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			if err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			return
		}
	}
}

// streamConsoleMessages forwards log lines to the SSE stream
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for {
		select {
		case consoleMsg := <-consoleChan:
			data, err := json.Marshal(consoleMsg)
			if err != nil {
				log.Printf("Error marshaling console message: %v", err)
				continue
			}

			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}

		case <-ctx.Done():
			return
		}
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
