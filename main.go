package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/df07/go-mlt/pkg/core"
	"github.com/df07/go-mlt/pkg/integrator"
	"github.com/df07/go-mlt/pkg/renderer"
	"github.com/df07/go-mlt/pkg/scene"
)

// Config holds the command line options
type Config struct {
	Scene          string
	Mode           string // "bdpt" or "mlt"
	Width          int    // 0 uses the scene's size
	Height         int
	EyePaths       int // Eye paths per pixel (bdpt)
	LightPaths     int // Light paths per eye path (bdpt)
	InitialSamples int // Seed pool size (mlt)
	Seeds          int // Chains (mlt)
	Mutations      int // Mutations per pixel (mlt)
	Tasks          int
	Workers        int
	MaxDepth       int // 0 uses the scene's depth
	Seed           int64
	Exposure       float64
	Scale          int  // Preview upscaling of the saved image
	Progressive    bool // Save the image after every merged task
}

func parseFlags(args []string) (Config, bool, error) {
	var cfg Config
	fs := flag.NewFlagSet("mlt", flag.ContinueOnError)
	fs.StringVar(&cfg.Scene, "scene", "cornell", "Scene to render (see -help)")
	fs.StringVar(&cfg.Mode, "mode", "bdpt", "Rendering mode: 'bdpt' or 'mlt'")
	fs.IntVar(&cfg.Width, "width", 0, "Image width (0 uses the scene default)")
	fs.IntVar(&cfg.Height, "height", 0, "Image height (0 uses the scene default)")
	fs.IntVar(&cfg.EyePaths, "spp", 16, "Eye paths per pixel (bdpt)")
	fs.IntVar(&cfg.LightPaths, "light-paths", 1, "Light paths per eye path (bdpt)")
	fs.IntVar(&cfg.InitialSamples, "initial-samples", 100000, "Paths sampled for the seed pool (mlt)")
	fs.IntVar(&cfg.Seeds, "seeds", 512, "Number of Markov chains (mlt)")
	fs.IntVar(&cfg.Mutations, "mutations", 16, "Mutations per pixel (mlt)")
	fs.IntVar(&cfg.Tasks, "tasks", 32, "Number of tasks the work is split into")
	fs.IntVar(&cfg.Workers, "workers", 0, "Number of workers (0 uses all CPUs)")
	fs.IntVar(&cfg.MaxDepth, "max-depth", 0, "Maximum subpath depth (0 uses the scene default)")
	fs.Int64Var(&cfg.Seed, "seed", 1, "Base random seed")
	fs.Float64Var(&cfg.Exposure, "exposure", 1, "Exposure multiplier applied before tone mapping")
	fs.IntVar(&cfg.Scale, "scale", 1, "Upscale the saved image by this factor")
	fs.BoolVar(&cfg.Progressive, "progressive", false, "Save the image after every merged task")
	help := fs.Bool("help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	if *help {
		fmt.Println("Metropolis Light Transport Renderer")
		fmt.Println("Usage: mlt [options]")
		fmt.Println()
		fmt.Println("Options:")
		fs.SetOutput(os.Stdout)
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		for _, info := range scene.ListScenes() {
			fmt.Printf("  %-8s - %s\n", info.ID, info.Description)
		}
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.png")
		return cfg, true, nil
	}

	if cfg.Mode != "bdpt" && cfg.Mode != "mlt" {
		return cfg, false, fmt.Errorf("unknown mode %q, expected bdpt or mlt", cfg.Mode)
	}
	if cfg.Scale < 1 {
		return cfg, false, fmt.Errorf("scale must be at least 1, got %d", cfg.Scale)
	}
	return cfg, false, nil
}

// createScene builds a built-in scene by name
func createScene(name string) (*scene.Scene, error) {
	return scene.NewScene(name)
}

// createOutputDir returns the output directory for a scene
func createOutputDir(sceneName string) string {
	return filepath.Join("output", sceneName)
}

// buildJob creates the job the configuration asks for
func buildJob(cfg Config, s *scene.Scene, display renderer.Display, logger core.Logger) (renderer.Job, error) {
	width, height := s.SamplingConfig.Width, s.SamplingConfig.Height
	if cfg.Width > 0 {
		width = cfg.Width
	}
	if cfg.Height > 0 {
		height = cfg.Height
	}
	info := integrator.PathInfo{MaxDepth: s.SamplingConfig.MaxDepth, RouletteDepth: s.SamplingConfig.RussianRouletteMinBounces}
	if cfg.MaxDepth > 0 {
		info.MaxDepth = cfg.MaxDepth
	}

	if cfg.Mode == "mlt" {
		config := renderer.DefaultMetropolisConfig()
		config.Width, config.Height = width, height
		config.InitialSamples = cfg.InitialSamples
		config.SeedTasks = cfg.Tasks
		config.NumSeeds = cfg.Seeds
		config.Mutations = width * height * cfg.Mutations
		config.MutationTasks = cfg.Tasks
		config.PathInfo = info
		config.Seed = cfg.Seed
		return renderer.NewMetropolisJob(s, config, display, logger)
	}

	config := renderer.DefaultBidiConfig()
	config.Width, config.Height = width, height
	config.EyePathsPerPixel = cfg.EyePaths
	config.LightPathsPerEyePath = cfg.LightPaths
	config.NumTasks = cfg.Tasks
	config.PathInfo = info
	config.Seed = cfg.Seed
	return renderer.NewBidiJob(s, config, display, logger)
}

// savePNG writes an image to path
func savePNG(img image.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("error saving PNG: %w", err)
	}
	return file.Close()
}

// progressiveDisplay saves the image to disk every time it changes
type progressiveDisplay struct {
	*renderer.ImageDisplay
	path   string
	scale  int
	logger core.Logger
}

func (d *progressiveDisplay) SetPixels(x, y int, r *renderer.Raster) {
	d.ImageDisplay.SetPixels(x, y, r)
	if err := savePNG(d.Preview(d.scale), d.path); err != nil {
		d.logger.Printf("Warning: %v\n", err)
	}
}

func run(ctx context.Context, cfg Config, logger core.Logger) (string, error) {
	s, err := createScene(cfg.Scene)
	if err != nil {
		return "", err
	}

	outputDir := createOutputDir(cfg.Scene)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}

	imageDisplay := renderer.NewImageDisplay(cfg.Exposure)
	var display renderer.Display = imageDisplay
	if cfg.Progressive {
		display = &progressiveDisplay{
			ImageDisplay: imageDisplay,
			path:         filepath.Join(outputDir, "progress.png"),
			scale:        cfg.Scale,
			logger:       logger,
		}
	}

	job, err := buildJob(cfg, s, display, logger)
	if err != nil {
		return "", err
	}

	runner := renderer.NewRunner(job, cfg.Workers, logger)
	logger.Printf("Rendering %s (%s) with %d workers...\n", cfg.Scene, cfg.Mode, runner.GetNumWorkers())
	stats, err := runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return "", err
	}
	if err != nil {
		logger.Printf("Render interrupted, saving the partial image\n")
	}
	logger.Printf("Render completed: %v (%.0f samples/s)\n", stats, stats.SamplesPerSecond())

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	if err := savePNG(imageDisplay.Preview(cfg.Scale), filename); err != nil {
		return "", err
	}
	return filename, nil
}

func main() {
	cfg, helped, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(2)
	}
	if helped {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Starting Metropolis Light Transport renderer...")
	filename, err := run(ctx, cfg, renderer.NewDefaultLogger())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", filename)
}
