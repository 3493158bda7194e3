package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qatools/testmatrix/internal/archive"
	"github.com/qatools/testmatrix/internal/config"
	"github.com/qatools/testmatrix/internal/logger"
	"github.com/qatools/testmatrix/internal/orchestrator"
	"github.com/qatools/testmatrix/internal/watch"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the testmatrix command tree.
func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "testmatrix",
		Short: "Test matrix generator for unittest-style test trees",
		Long: `testmatrix discovers test modules, classes, and functions from a test tree,
groups them into a nested test-suite/test-case structure, and appends the
structure as one JSON document per invocation to a matrix file. The matrix
file's directory can be pushed to a git archive repository.

Examples:
  testmatrix generate ./tests -o matrix/testmatrix.json
  testmatrix generate ./tests -o matrix/testmatrix.json -g git@host:qa/archive.git
  testmatrix push matrix -g git@host:qa/archive.git
  testmatrix watch ./tests -o matrix/testmatrix.json`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newPushCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// matrixFlags is the flag set shared by generate and watch.
type matrixFlags struct {
	output     string
	pattern    string
	collector  string
	gitRepo    string
	archiver   string
	nativeGit  bool
	configPath string
}

func (f *matrixFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "matrix file the JSON document is appended to")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "discovery file pattern (default *.py)")
	cmd.Flags().StringVar(&f.collector, "collector", "", "discovery backend: static or pytest (default static)")
	cmd.Flags().StringVarP(&f.gitRepo, "git-repo", "g", "", "git archive repository to push the matrix directory to")
	cmd.Flags().StringVar(&f.archiver, "archiver", "", "external archiver command (default "+archive.DefaultArchiver+")")
	cmd.Flags().BoolVar(&f.nativeGit, "native-git", false, "commit with the built-in git support instead of the archiver")
	cmd.Flags().StringVar(&f.configPath, "config", "", "config file (default "+config.DefaultPath+")")
}

// resolve layers flag values over the config file. Flags given on the
// command line win.
func (f *matrixFlags) resolve(cmd *cobra.Command) (orchestrator.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return orchestrator.Config{}, err
	}

	resolved := orchestrator.Config{
		Output:    cfg.Output,
		Pattern:   cfg.Pattern,
		Collector: cfg.Collector,
		GitRepo:   cfg.GitRepo,
		Archiver:  cfg.Archiver,
		NativeGit: cfg.NativeGit,
	}
	if cmd.Flags().Changed("output") {
		resolved.Output = f.output
	}
	if cmd.Flags().Changed("pattern") {
		resolved.Pattern = f.pattern
	}
	if cmd.Flags().Changed("collector") {
		resolved.Collector = f.collector
	}
	if cmd.Flags().Changed("git-repo") {
		resolved.GitRepo = f.gitRepo
	}
	if cmd.Flags().Changed("archiver") {
		resolved.Archiver = f.archiver
	}
	if cmd.Flags().Changed("native-git") {
		resolved.NativeGit = f.nativeGit
	}

	if resolved.Output == "" {
		return orchestrator.Config{}, errors.New("an output file is required (--output or config)")
	}
	return resolved, nil
}

func newGenerateCommand() *cobra.Command {
	flags := &matrixFlags{}

	cmd := &cobra.Command{
		Use:   "generate <test-dir>",
		Short: "Discover tests and append a matrix document to the output file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			cfg.TestDir = args[0]

			fileLogger, err := logger.NewFileLogger()
			if err != nil {
				return fmt.Errorf("failed to create debug logger: %w", err)
			}
			defer func() { _ = fileLogger.Close() }()
			cfg.Logger = fileLogger

			orch, err := orchestrator.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			return orch.Run(ctx)
		},
	}

	flags.register(cmd)
	return cmd
}

func newPushCommand() *cobra.Command {
	var (
		gitRepo     string
		archiverCmd string
		nativeGit   bool
		configPath  string
	)

	cmd := &cobra.Command{
		Use:   "push <file-dir>",
		Short: "Push an existing matrix directory to the git archive repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("git-repo") {
				gitRepo = cfg.GitRepo
			}
			if !cmd.Flags().Changed("archiver") {
				archiverCmd = cfg.Archiver
			}
			if !cmd.Flags().Changed("native-git") {
				nativeGit = cfg.NativeGit
			}

			fileLogger, err := logger.NewFileLogger()
			if err != nil {
				return fmt.Errorf("failed to create debug logger: %w", err)
			}
			defer func() { _ = fileLogger.Close() }()

			var pusher archive.Pusher
			if nativeGit {
				pusher = archive.NewGitPusher(fileLogger)
			} else {
				pusher = archive.NewExecPusher(archiverCmd, fileLogger)
			}

			ctx, stop := signalContext()
			defer stop()
			return pusher.Push(ctx, args[0], gitRepo)
		},
	}

	cmd.Flags().StringVarP(&gitRepo, "git-repo", "g", "", "git archive repository")
	cmd.Flags().StringVar(&archiverCmd, "archiver", "", "external archiver command (default "+archive.DefaultArchiver+")")
	cmd.Flags().BoolVar(&nativeGit, "native-git", false, "commit with the built-in git support instead of the archiver")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath+")")
	return cmd
}

func newWatchCommand() *cobra.Command {
	flags := &matrixFlags{}

	cmd := &cobra.Command{
		Use:   "watch <test-dir>",
		Short: "Regenerate the matrix whenever the test tree changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			cfg.TestDir = args[0]

			fileLogger, err := logger.NewFileLogger()
			if err != nil {
				return fmt.Errorf("failed to create debug logger: %w", err)
			}
			defer func() { _ = fileLogger.Close() }()
			cfg.Logger = fileLogger

			orch, err := orchestrator.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			// Generate once up front so the matrix exists before any change
			if err := orch.Run(ctx); err != nil {
				return err
			}

			watcher, err := watch.New(cfg.TestDir, cfg.Pattern, watch.DefaultDebounce, func() {
				if err := orch.Run(ctx); err != nil {
					fileLogger.Error("Regeneration failed: %v", err)
				}
			}, fileLogger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", cfg.TestDir)
			if err := watcher.Run(ctx); errors.Is(err, context.Canceled) {
				return nil
			} else if err != nil {
				return err
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
