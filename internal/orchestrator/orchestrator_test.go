package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/qatools/testmatrix/internal/logger"
)

func writeTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := `import unittest

class TestMath(unittest.TestCase):
    def test_add(self):
        pass

    def test_sub(self):
        pass
`
	if err := os.WriteFile(filepath.Join(dir, "test_math.py"), []byte(content), 0644); err != nil {
		t.Fatalf("write test tree: %v", err)
	}
	return dir
}

func TestNew_Validation(t *testing.T) {
	log := logger.NewTestLogger()

	tests := []struct {
		name   string
		config Config
	}{
		{"missing logger", Config{TestDir: "x", Output: "y"}},
		{"missing test dir", Config{Output: "y", Logger: log}},
		{"missing output", Config{TestDir: "x", Logger: log}},
		{"unknown collector", Config{TestDir: "x", Output: "y", Collector: "junit", Logger: log}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRun_GeneratesMatrixFile(t *testing.T) {
	testDir := writeTestTree(t)
	output := filepath.Join(t.TempDir(), "testmatrix.json")
	log := logger.NewTestLogger()

	orch, err := New(Config{TestDir: testDir, Output: output, Logger: log})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var doc struct {
		Suites []struct {
			Name  string `json:"testsuitename"`
			Cases []struct {
				Name   string `json:"testcasename"`
				Result string `json:"testresult"`
				Log    string `json:"testlog"`
			} `json:"testcase"`
		} `json:"testsuite"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if len(doc.Suites) != 1 {
		t.Fatalf("suites = %d, want 1", len(doc.Suites))
	}
	if doc.Suites[0].Name != "test_math.TestMath" {
		t.Errorf("suite name = %q", doc.Suites[0].Name)
	}
	if len(doc.Suites[0].Cases) != 2 {
		t.Fatalf("cases = %d, want 2", len(doc.Suites[0].Cases))
	}
	if doc.Suites[0].Cases[0].Name != "test_math.TestMath.test_add" {
		t.Errorf("case name = %q", doc.Suites[0].Cases[0].Name)
	}
	if doc.Suites[0].Cases[0].Result != "" || doc.Suites[0].Cases[0].Log != "" {
		t.Error("result and log slots must stay empty")
	}

	// Per-test debug lines go to the logger, not stdout
	found := false
	for _, msg := range log.GetDebugMessages() {
		if strings.Contains(msg, "test_add (test_math.TestMath) : suite : test_math.TestMath") {
			found = true
		}
	}
	if !found {
		t.Error("missing per-test debug line")
	}
}

func TestRun_AppendsSecondDocument(t *testing.T) {
	testDir := writeTestTree(t)
	output := filepath.Join(t.TempDir(), "testmatrix.json")

	orch, err := New(Config{TestDir: testDir, Output: output, Logger: logger.NewTestLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := orch.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := orch.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got := strings.Count(string(data), `"testsuite"`); got != 2 {
		t.Errorf("appended documents = %d, want 2", got)
	}
}

func TestRun_NativeGitPush(t *testing.T) {
	testDir := writeTestTree(t)
	outDir := t.TempDir()
	output := filepath.Join(outDir, "testmatrix.json")

	orch, err := New(Config{
		TestDir:   testDir,
		Output:    output,
		NativeGit: true,
		Logger:    logger.NewTestLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, ".git")); err != nil {
		t.Errorf("expected archive repo at %s: %v", outDir, err)
	}
}

func TestRun_DiscoveryFailure(t *testing.T) {
	orch, err := New(Config{
		TestDir: filepath.Join(t.TempDir(), "missing"),
		Output:  filepath.Join(t.TempDir(), "out.json"),
		Logger:  logger.NewTestLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := orch.Run(context.Background()); err == nil {
		t.Error("expected discovery error")
	}
}
