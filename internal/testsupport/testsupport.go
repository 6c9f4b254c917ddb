// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"reframe/internal/config"
)

// NewConfig returns a default configuration with every path rooted in a
// fresh temporary directory.
func NewConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(root, "downloads")
	cfg.Paths.ReportsDir = filepath.Join(root, "reports")
	cfg.Paths.SequencesDir = filepath.Join(root, "sequences")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Gemini.APIKey = "test-key"
	return cfg
}

// WriteFile creates path's parent directory if needed and writes content.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Touch writes an empty file and pins its modification time.
func Touch(t *testing.T, path string, modTime time.Time) string {
	t.Helper()
	WriteFile(t, path, "")
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
	return path
}

// StubBinary places an executable shell script named name on a directory
// that the caller prepends to PATH, exiting with the given code.
func StubBinary(t *testing.T, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
	return path
}
