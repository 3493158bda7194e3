package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/qatools/testmatrix/internal/archive"
	"github.com/qatools/testmatrix/internal/discover"
	"github.com/qatools/testmatrix/internal/matrix"
)

// Logger interface for logging
type Logger interface {
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
	Info(format string, args ...interface{})
}

// Config holds orchestrator configuration
type Config struct {
	TestDir   string // test tree to discover
	Output    string // matrix file the document is appended to
	Pattern   string // discovery pattern for the static backend
	Collector string // discovery backend: static or pytest
	GitRepo   string // archive repository, empty disables pushing
	Archiver  string // external archiver command
	NativeGit bool   // commit with go-git instead of the archiver
	Logger    Logger
}

// Orchestrator runs one matrix generation: discover, group, encode, append,
// and optionally push to the archive repo.
type Orchestrator struct {
	config     Config
	discoverer discover.Discoverer
	pusher     archive.Pusher
	logger     Logger
}

// New creates a new orchestrator
func New(config Config) (*Orchestrator, error) {
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.TestDir == "" {
		return nil, errors.New("test directory is required")
	}
	if config.Output == "" {
		return nil, errors.New("output file is required")
	}

	discoverer, err := discover.ForName(config.Collector, config.Pattern, config.Logger)
	if err != nil {
		return nil, err
	}

	var pusher archive.Pusher
	if config.NativeGit {
		pusher = archive.NewGitPusher(config.Logger)
	} else {
		pusher = archive.NewExecPusher(config.Archiver, config.Logger)
	}

	return &Orchestrator{
		config:     config,
		discoverer: discoverer,
		pusher:     pusher,
		logger:     config.Logger,
	}, nil
}

// Run executes the full pipeline once.
func (o *Orchestrator) Run(ctx context.Context) error {
	ids, err := o.discoverer.Discover(ctx, o.config.TestDir)
	if err != nil {
		return fmt.Errorf("test discovery failed: %w", err)
	}

	for _, id := range ids {
		o.logger.Debug("%s : suite : %s", id, id.ModuleClassKey())
	}

	grouping := matrix.GroupByModuleClass(ids)
	doc := matrix.Build(grouping.Keys(), grouping)

	byModule := matrix.GroupByModule(grouping.Keys())
	for _, module := range byModule.Keys() {
		o.logger.Debug("module %s : suites : %v", module, byModule.Get(module))
	}
	o.logger.Info("Built matrix: %d modules, %d suites, %d tests",
		byModule.Len(), grouping.Len(), len(ids))

	data, err := matrix.Encode(doc)
	if err != nil {
		return err
	}
	if err := matrix.AppendToFile(o.config.Output, data); err != nil {
		return err
	}
	o.logger.Info("Appended matrix document to %s", o.config.Output)

	if o.config.GitRepo == "" && !o.config.NativeGit {
		return nil
	}
	return o.Push(ctx)
}

// Push sends the matrix file's directory to the archive repository.
func (o *Orchestrator) Push(ctx context.Context) error {
	fileDir := filepath.Dir(o.config.Output)
	if err := o.pusher.Push(ctx, fileDir, o.config.GitRepo); err != nil {
		return fmt.Errorf("archive push failed: %w", err)
	}
	return nil
}
