package metropolis

import "errors"

var (
	// ErrInvalidConfig is returned for unusable chain settings
	ErrInvalidConfig = errors.New("invalid metropolis configuration")
	// ErrZeroSeed is returned when a chain is started on a path with no contribution
	ErrZeroSeed = errors.New("seed path has zero contribution")
)
