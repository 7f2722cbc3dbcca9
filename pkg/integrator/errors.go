package integrator

import "errors"

var (
	// ErrInvalidContribution is returned when a connection yields a negative or NaN luminance
	ErrInvalidContribution = errors.New("invalid path contribution")
	// ErrInvalidConfig is returned for unusable path settings
	ErrInvalidConfig = errors.New("invalid path configuration")
	// ErrInvalidSlice is returned when a path is truncated past its ends
	ErrInvalidSlice = errors.New("invalid path truncation")
)
