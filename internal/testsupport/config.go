// Package testsupport provides shared fixtures for fishtally tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"fishtally/internal/config"
)

// NewConfig produces a config whose project root is a unique temp directory
// per test, with the video roots defaulted the way normalize would.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectRoot = base
	cfg.Paths.VideoIndexRoot = base
	cfg.Paths.VideoLibraryRoot = base
	return &cfg
}

// WriteLog writes a counter log into the config's project root.
func WriteLog(t testing.TB, cfg *config.Config, name, content string) string {
	t.Helper()

	path := filepath.Join(cfg.Paths.ProjectRoot, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log %s: %v", name, err)
	}
	return path
}

// WriteClip creates an empty clip file under dir, creating intermediate
// directories as needed.
func WriteClip(t testing.TB, dir, name string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("clip"), 0o644); err != nil {
		t.Fatalf("write clip %s: %v", name, err)
	}
	return path
}
