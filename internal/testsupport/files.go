package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteEditFile writes a TOML edit document to a temp path and returns it.
func WriteEditFile(t testing.TB, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "edit.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write edit file %s: %v", path, err)
	}
	return path
}

// MinimalEdit is a valid single-clip edit document for tests that only need
// the pipeline to start.
const MinimalEdit = `
width = 64
height = 36
fps = 10.0

[[clips]]
duration = 1.0

[[clips.layers]]
type = "fill-color"
color = "#336699"
`
