package discover

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/qatools/testmatrix/internal/testid"
)

// pytest exits with 5 when collection succeeds but finds no tests
const pytestExitNoTests = 5

// CollectDiscoverer shells out to pytest's collect-only mode and parses the
// reported node IDs. It is the exec-based alternative to static scanning and
// picks up whatever the installed collector would actually load.
type CollectDiscoverer struct {
	command []string // collector invocation, e.g. ["python3", "-m", "pytest"]
	logger  Logger

	lookPath func(string) (string, error) // overridable for tests
}

// NewCollectDiscoverer creates a pytest-backed discovery backend.
func NewCollectDiscoverer(logger Logger) *CollectDiscoverer {
	if logger == nil {
		logger = &noopLogger{}
	}
	return &CollectDiscoverer{logger: logger, lookPath: exec.LookPath}
}

// SetCommand overrides collector auto-detection with an explicit invocation.
func (d *CollectDiscoverer) SetCommand(command []string) {
	d.command = command
}

// resolveCommand picks the collector invocation: a bare pytest binary when
// available, otherwise pytest through the python interpreter.
func (d *CollectDiscoverer) resolveCommand() ([]string, error) {
	if len(d.command) > 0 {
		return d.command, nil
	}

	if _, err := d.lookPath("pytest"); err == nil {
		return []string{"pytest"}, nil
	}
	for _, python := range []string{"python3", "python"} {
		if _, err := d.lookPath(python); err == nil {
			return []string{python, "-m", "pytest"}, nil
		}
	}
	return nil, errors.New("no pytest or python interpreter found on PATH")
}

// Discover runs the collector in dir and parses its node IDs into the flat
// test list, preserving collector output order.
func (d *CollectDiscoverer) Discover(ctx context.Context, dir string) ([]testid.TestID, error) {
	command, err := d.resolveCommand()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve collector command: %w", err)
	}

	args := append(append([]string{}, command[1:]...), "--collect-only", "-q")
	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.logger.Debug("Running collector: %s", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == pytestExitNoTests {
			d.logger.Info("Collector found no tests under %s", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("collector failed: %w\n%s", err, stderr.String())
	}

	ids := ParseNodeIDs(stdout.String())
	d.logger.Info("Collector discovery found %d tests under %s", len(ids), dir)
	return ids, nil
}

// ParseNodeIDs parses pytest collect-only -q output. Node IDs look like
// "tests/test_math.py::TestMath::test_add" for class-based tests and
// "tests/test_misc.py::test_standalone" for module-level functions; summary
// and blank lines carry no "::" and are skipped.
func ParseNodeIDs(output string) []testid.TestID {
	var ids []testid.TestID

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.Contains(line, "::") {
			continue
		}

		parts := strings.Split(line, "::")
		if len(parts) < 2 {
			continue
		}

		module := nodeModule(parts[0])
		if module == "" {
			continue
		}

		id := testid.TestID{
			Function: parts[len(parts)-1],
			Module:   module,
		}
		if len(parts) > 2 {
			// Nested classes keep their dotted path as the class component
			id.Class = strings.Join(parts[1:len(parts)-1], ".")
		}
		ids = append(ids, id)
	}

	return ids
}

// nodeModule converts the file component of a node ID into a dotted module
// name. Non-Python components are rejected.
func nodeModule(path string) string {
	if !strings.HasSuffix(path, ".py") {
		return ""
	}
	path = strings.TrimSuffix(path, ".py")
	return strings.ReplaceAll(strings.ReplaceAll(path, "\\", "/"), "/", ".")
}
