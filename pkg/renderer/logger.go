package renderer

import (
	"fmt"

	"github.com/df07/go-mlt/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// discardLogger drops everything; jobs use it when no logger is given
type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

func orDiscard(logger core.Logger) core.Logger {
	if logger == nil {
		return discardLogger{}
	}
	return logger
}
