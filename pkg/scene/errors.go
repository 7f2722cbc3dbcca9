package scene

import "errors"

var (
	// ErrNoLight is returned when a scene is prepared without an emitter
	ErrNoLight = errors.New("scene has no light")
	// ErrUnknownScene is returned by NewScene for names it does not know
	ErrUnknownScene = errors.New("unknown scene")
)
