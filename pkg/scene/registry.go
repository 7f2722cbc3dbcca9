package scene

import (
	"fmt"
	"sort"
)

// SceneInfo describes a built-in scene
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
}

type sceneEntry struct {
	info  SceneInfo
	build func() *Scene
}

var builtinScenes = map[string]sceneEntry{
	"cornell": {
		info:  SceneInfo{ID: "cornell", DisplayName: "Cornell Box", Description: "Diffuse box with a mirror sphere under a ceiling light"},
		build: func() *Scene { return NewCornellScene() },
	},
	"plane": {
		info:  SceneInfo{ID: "plane", DisplayName: "Lambertian Plane", Description: "Diffuse plane under a parallel square light"},
		build: func() *Scene { return NewLambertianPlaneScene() },
	},
}

// ListScenes returns the built-in scenes sorted by display name
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtinScenes))
	for _, entry := range builtinScenes {
		scenes = append(scenes, entry.info)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes
}

// NewScene builds and preprocesses a built-in scene by ID
func NewScene(id string) (*Scene, error) {
	entry, ok := builtinScenes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}
	s := entry.build()
	if err := s.Preprocess(); err != nil {
		return nil, fmt.Errorf("failed to prepare scene %q: %w", id, err)
	}
	return s, nil
}
