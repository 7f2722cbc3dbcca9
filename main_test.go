package main

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-mlt/pkg/renderer"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		expectErr bool
		check     func(Config) bool
	}{
		{"defaults", nil, false, func(c Config) bool { return c.Scene == "cornell" && c.Mode == "bdpt" && c.Scale == 1 }},
		{"metropolis", []string{"-mode", "mlt", "-seeds", "64"}, false, func(c Config) bool { return c.Mode == "mlt" && c.Seeds == 64 }},
		{"sizes", []string{"-width", "32", "-height", "24", "-scale", "4"}, false, func(c Config) bool { return c.Width == 32 && c.Height == 24 && c.Scale == 4 }},
		{"unknown mode", []string{"-mode", "pt"}, true, nil},
		{"bad scale", []string{"-scale", "0"}, true, nil},
		{"unknown flag", []string{"-tiles", "4"}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, helped, err := parseFlags(tt.args)
			if helped {
				t.Fatal("Help was not requested")
			}
			if tt.expectErr {
				if err == nil {
					t.Error("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("Unexpected config: %+v", cfg)
			}
		})
	}
}

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		expectError bool
	}{
		{"cornell scene", "cornell", false},
		{"plane scene", "plane", false},
		{"unknown scene", "nonexistent", true},
		{"empty scene name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene, err := createScene(tt.sceneType)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for scene type '%s', but got none", tt.sceneType)
				}
				if scene != nil {
					t.Errorf("Expected nil scene for invalid scene type '%s'", tt.sceneType)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for scene type '%s': %v", tt.sceneType, err)
			}
			if scene.SamplingConfig.Width <= 0 || scene.SamplingConfig.Height <= 0 {
				t.Errorf("Scene sampling size should be positive, got %dx%d", scene.SamplingConfig.Width, scene.SamplingConfig.Height)
			}
		})
	}
}

func TestCreateOutputDir(t *testing.T) {
	if got, want := createOutputDir("cornell"), filepath.Join("output", "cornell"); got != want {
		t.Errorf("createOutputDir() = %s, want %s", got, want)
	}
}

func TestBuildJob(t *testing.T) {
	s, err := createScene("plane")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		mode string
		want string
	}{
		{"bdpt", "*renderer.BidiJob"},
		{"mlt", "*renderer.MetropolisJob"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg, _, err := parseFlags([]string{"-mode", tt.mode, "-tasks", "2"})
			if err != nil {
				t.Fatal(err)
			}
			job, err := buildJob(cfg, s, nil, nil)
			if err != nil {
				t.Fatalf("buildJob failed: %v", err)
			}
			switch job.(type) {
			case *renderer.BidiJob:
				if tt.want != "*renderer.BidiJob" {
					t.Errorf("Expected %s, got a bidirectional job", tt.want)
				}
			case *renderer.MetropolisJob:
				if tt.want != "*renderer.MetropolisJob" {
					t.Errorf("Expected %s, got a Metropolis job", tt.want)
				}
			default:
				t.Errorf("Unexpected job type %T", job)
			}
		})
	}
}

func TestRun_WritesImage(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, _, err := parseFlags([]string{"-scene", "plane", "-spp", "2", "-tasks", "2", "-workers", "2", "-scale", "3", "-progressive"})
	if err != nil {
		t.Fatal(err)
	}
	filename, err := run(context.Background(), cfg, renderer.NewDefaultLogger())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.HasPrefix(filename, filepath.Join("output", "plane", "render_")) {
		t.Errorf("Unexpected output path %s", filename)
	}

	for _, path := range []string{filename, filepath.Join("output", "plane", "progress.png")} {
		file, err := os.Open(path)
		if err != nil {
			t.Fatalf("Expected %s to exist: %v", path, err)
		}
		img, err := png.Decode(file)
		file.Close()
		if err != nil {
			t.Fatalf("Invalid PNG %s: %v", path, err)
		}
		if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 12 {
			t.Errorf("Expected a 12x12 image in %s, got %v", path, b)
		}
	}
}
