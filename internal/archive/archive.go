package archive

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultArchiver is the external command used to push a matrix directory
// into a git archive repository.
const DefaultArchiver = "oe-git-archive"

// Pusher pushes a matrix file directory into a git archive repository.
type Pusher interface {
	Push(ctx context.Context, fileDir, repoURL string) error
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

// ExecPusher runs an external archiver command in the
// "<archiver> <fileDir> -g <repo>" form.
type ExecPusher struct {
	archiver string
	logger   Logger

	lookPath func(string) (string, error) // overridable for tests
}

// NewExecPusher creates a pusher backed by an external archiver command.
// An empty archiver falls back to DefaultArchiver.
func NewExecPusher(archiver string, logger Logger) *ExecPusher {
	if archiver == "" {
		archiver = DefaultArchiver
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &ExecPusher{archiver: archiver, logger: logger, lookPath: exec.LookPath}
}

// Push runs the archiver against fileDir. The archiver's combined output goes
// to the debug log; a non-zero exit becomes an error carrying that output.
func (p *ExecPusher) Push(ctx context.Context, fileDir, repoURL string) error {
	if repoURL == "" {
		return errors.New("archive repository is required")
	}
	if _, err := p.lookPath(p.archiver); err != nil {
		return fmt.Errorf("archiver %q not found on PATH: %w", p.archiver, err)
	}

	cmd := exec.CommandContext(ctx, p.archiver, fileDir, "-g", repoURL)
	p.logger.Debug("Running archiver: %s", strings.Join(cmd.Args, " "))

	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		p.logger.Debug("Archiver output:\n%s", string(output))
	}
	if err != nil {
		return fmt.Errorf("archiver %s failed: %w\n%s", p.archiver, err, string(output))
	}

	p.logger.Info("Pushed %s to %s", fileDir, repoURL)
	return nil
}
