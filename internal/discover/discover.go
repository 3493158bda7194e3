package discover

import (
	"context"
	"fmt"

	"github.com/qatools/testmatrix/internal/testid"
)

// DefaultPattern matches the unittest loader default used for discovery.
const DefaultPattern = "*.py"

// Discoverer finds tests under a test tree and returns them as a flat,
// deterministically ordered list.
type Discoverer interface {
	Discover(ctx context.Context, dir string) ([]testid.TestID, error)
}

// Logger interface for debug logging
type Logger interface {
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
	Info(format string, args ...interface{})
}

// noopLogger is a default logger that does nothing
type noopLogger struct{}

func (n *noopLogger) Debug(format string, args ...interface{}) {}
func (n *noopLogger) Error(format string, args ...interface{}) {}
func (n *noopLogger) Info(format string, args ...interface{})  {}

// ForName returns the discovery backend for a --collector flag value.
func ForName(name, pattern string, logger Logger) (Discoverer, error) {
	switch name {
	case "", "static":
		return NewStaticDiscoverer(pattern, logger), nil
	case "pytest":
		return NewCollectDiscoverer(logger), nil
	default:
		return nil, fmt.Errorf("unknown collector %q (supported: static, pytest)", name)
	}
}
