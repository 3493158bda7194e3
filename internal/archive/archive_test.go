package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestExecPusher_RunsArchiverWithArgs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	archiver := writeScript(t, dir, "fake-archive", `echo "$@" > `+argsFile)

	p := NewExecPusher(archiver, nil)
	if err := p.Push(context.Background(), "/data/matrix", "git@example.com:qa/archive.git"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	recorded, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	got := strings.TrimSpace(string(recorded))
	want := "/data/matrix -g git@example.com:qa/archive.git"
	if got != want {
		t.Errorf("archiver args = %q, want %q", got, want)
	}
}

func TestExecPusher_FailureCarriesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	dir := t.TempDir()
	archiver := writeScript(t, dir, "fake-archive", `echo "remote rejected" >&2; exit 3`)

	p := NewExecPusher(archiver, nil)
	err := p.Push(context.Background(), dir, "repo")
	if err == nil {
		t.Fatal("expected error from failing archiver")
	}
	if !strings.Contains(err.Error(), "remote rejected") {
		t.Errorf("error should carry archiver output, got: %v", err)
	}
}

func TestExecPusher_EmptyRepo(t *testing.T) {
	p := NewExecPusher("", nil)
	if err := p.Push(context.Background(), t.TempDir(), ""); err == nil {
		t.Fatal("expected error for empty repo URL")
	}
}

func TestExecPusher_MissingArchiver(t *testing.T) {
	p := NewExecPusher("definitely-not-a-real-archiver", nil)
	p.lookPath = func(name string) (string, error) {
		return "", errors.New("not found")
	}

	err := p.Push(context.Background(), t.TempDir(), "repo")
	if err == nil {
		t.Fatal("expected error for missing archiver")
	}
	if !strings.Contains(err.Error(), "definitely-not-a-real-archiver") {
		t.Errorf("error should name the missing binary, got: %v", err)
	}
}

func TestExecPusher_DefaultArchiverName(t *testing.T) {
	p := NewExecPusher("", nil)
	if p.archiver != DefaultArchiver {
		t.Errorf("archiver = %q, want %q", p.archiver, DefaultArchiver)
	}
}
