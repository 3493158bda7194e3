package discover

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/qatools/testmatrix/internal/testid"
)

var (
	// Matches "class Name(bases):" and bare "class Name:" declarations
	classPattern = regexp.MustCompile(`^(\s*)class\s+(\w+)\s*(?:\(([^)]*)\))?\s*:`)

	// Matches "def test_*(" declarations, capturing indentation
	testFuncPattern = regexp.MustCompile(`^(\s*)def\s+(test\w*)\s*\(`)
)

// StaticDiscoverer walks a test tree and scans Python sources for
// unittest-style test classes and test functions without executing them.
// It mirrors what unittest.TestLoader().discover(dir, pattern) would load,
// flattened into a single list.
type StaticDiscoverer struct {
	pattern string
	logger  Logger
}

// NewStaticDiscoverer creates a static discovery backend. An empty pattern
// falls back to DefaultPattern.
func NewStaticDiscoverer(pattern string, logger Logger) *StaticDiscoverer {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &StaticDiscoverer{pattern: pattern, logger: logger}
}

// Discover walks dir and returns all discovered tests in lexical file order,
// then source declaration order within each file.
func (d *StaticDiscoverer) Discover(ctx context.Context, dir string) ([]testid.TestID, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat test directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test directory %s is not a directory", dir)
	}

	var ids []testid.TestID
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			d.logger.Error("Failed to walk %s: %v", path, walkErr)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			// Hidden directories are never packages worth scanning
			if path != dir && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		matched, matchErr := filepath.Match(d.pattern, entry.Name())
		if matchErr != nil {
			return fmt.Errorf("invalid discovery pattern %q: %w", d.pattern, matchErr)
		}
		if !matched || !strings.HasSuffix(entry.Name(), ".py") {
			return nil
		}

		module := moduleName(dir, path)
		fileIDs, scanErr := scanFile(path, module)
		if scanErr != nil {
			// Unreadable files are logged and skipped, never fatal
			d.logger.Error("Failed to scan %s: %v", path, scanErr)
			return nil
		}
		d.logger.Debug("Scanned %s: %d tests", path, len(fileIDs))
		ids = append(ids, fileIDs...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovery walk failed: %w", err)
	}

	d.logger.Info("Static discovery found %d tests under %s", len(ids), dir)
	return ids, nil
}

// moduleName converts a file path under the discovery root into a dotted
// unittest module name ("pkg/test_math.py" -> "pkg.test_math").
func moduleName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, ".py")
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
}

// scanFile extracts test classes and test functions from one Python source
// file. Only classes whose base list mentions TestCase are loaded, matching
// unittest semantics; top-level test functions carry no class.
func scanFile(path, module string) ([]testid.TestID, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var ids []testid.TestID

	// Tracks the innermost class declarations still in scope, by indentation
	var scopes []classScope

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := classPattern.FindStringSubmatch(line); m != nil {
			indent := len(m[1])
			scopes = popScopes(scopes, indent)
			scopes = append(scopes, classScope{
				name:       m[2],
				indent:     indent,
				isTestCase: strings.Contains(m[3], "TestCase"),
			})
			continue
		}

		if m := testFuncPattern.FindStringSubmatch(line); m != nil {
			indent := len(m[1])
			scopes = popScopes(scopes, indent)

			if len(scopes) == 0 {
				// Module-level test function, no class component. Indented
				// defs outside any class are nested helpers, not tests.
				if indent == 0 {
					ids = append(ids, testid.TestID{Function: m[2], Module: module})
				}
				continue
			}

			owner := scopes[len(scopes)-1]
			if !owner.isTestCase {
				continue
			}
			ids = append(ids, testid.TestID{Function: m[2], Module: module, Class: owner.name})
			continue
		}

		// Any other statement at or left of a class's indentation closes it
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		scopes = popScopes(scopes, indent)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// classScope records a class declaration while scanning its body
type classScope struct {
	name       string
	indent     int
	isTestCase bool
}

// popScopes drops class scopes whose body cannot contain a statement at the
// given indentation.
func popScopes(scopes []classScope, indent int) []classScope {
	for len(scopes) > 0 && indent <= scopes[len(scopes)-1].indent {
		scopes = scopes[:len(scopes)-1]
	}
	return scopes
}
