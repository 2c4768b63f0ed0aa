// Package testutil locates the shared .kr fixtures under testdata/.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bazelbuild/rules_go/go/tools/bazel"
)

// Dir returns the testdata directory.
// In Bazel tests, it uses runfiles to find it.
// Outside of Bazel, it falls back to finding go.mod and using the module root.
func Dir(t testing.TB) string {
	t.Helper()

	// Use a known fixture to locate the directory
	if path, err := bazel.Runfile("testdata/fib.kr"); err == nil {
		return filepath.Dir(path)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "testdata")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("testdata not found above %s", cwd)
		}
		dir = parent
	}
}

// Path returns the path of the named fixture, e.g. "uses/main.kr".
func Path(t testing.TB, name string) string {
	t.Helper()
	return filepath.Join(Dir(t), filepath.FromSlash(name))
}

// Read returns the contents of the named fixture.
func Read(t testing.TB, name string) string {
	t.Helper()
	data, err := os.ReadFile(Path(t, name))
	if err != nil {
		t.Fatalf("reading fixture %s: %v", name, err)
	}
	return string(data)
}

// Sources returns the names of the top-level .kr fixtures.
func Sources(t testing.TB) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(Dir(t), "*.kr"))
	if err != nil {
		t.Fatalf("listing fixtures: %v", err)
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = filepath.Base(m)
	}
	return names
}
