// Package testutil provides shared helpers for tests that need a naosu
// home directory or catalog fixtures on disk.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tsukumogami/naosu/internal/config"
)

// NewTestConfig creates a config rooted in a temporary directory with
// the full directory layout already in place. NAOSU_HOME is pointed at
// the same root so code that reads the environment agrees with the
// returned config.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv(config.EnvNaosuHome, tmpDir)

	cfg := &config.Config{
		HomeDir:     tmpDir,
		CatalogDir:  filepath.Join(tmpDir, "catalog"),
		CacheDir:    filepath.Join(tmpDir, "cache"),
		KeyCacheDir: filepath.Join(tmpDir, "cache", "keys"),
		ConfigFile:  filepath.Join(tmpDir, "config.toml"),
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("failed to create config directories: %v", err)
	}
	return cfg
}

// WriteRecipe drops a recipe file into dir under <name>.toml and
// returns its path.
func WriteRecipe(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name+".toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write recipe %s: %v", name, err)
	}
	return path
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AssertFileExists checks if a file exists at the given path
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if !FileExists(path) {
		t.Errorf("file does not exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does NOT exist at the given path
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if FileExists(path) {
		t.Errorf("file should not exist: %s", path)
	}
}
