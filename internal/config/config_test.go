package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reframe/internal/config"
)

func TestDefaultValues(t *testing.T) {
	cfg := config.Default()
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected default model: %q", cfg.Gemini.Model)
	}
	if cfg.Gemini.Temperature != 0.1 {
		t.Fatalf("unexpected default temperature: %g", cfg.Gemini.Temperature)
	}
	if cfg.Fetch.Binary != "yt-dlp" {
		t.Fatalf("unexpected default fetch binary: %q", cfg.Fetch.Binary)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected default logging: %+v", cfg.Logging)
	}
}

func TestLoadParsesAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
download_dir = "` + filepath.Join(dir, "dl") + `"
reports_dir = "` + filepath.Join(dir, "rep") + `"
sequences_dir = "` + filepath.Join(dir, "seq") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[gemini]
api_key = "secret"
model = "gemini-test"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Gemini.Model != "gemini-test" {
		t.Fatalf("model = %q", cfg.Gemini.Model)
	}
	if !filepath.IsAbs(cfg.Paths.DownloadDir) {
		t.Fatalf("download dir not absolute: %q", cfg.Paths.DownloadDir)
	}
	if cfg.Gemini.BaseURL == "" || cfg.Gemini.InlineLimitMiB <= 0 {
		t.Fatalf("defaults not applied: %+v", cfg.Gemini)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Fetch.MaxHeight != 1080 {
		t.Fatalf("defaults not applied: %+v", cfg.Fetch)
	}
}

func TestGeminiKeyFromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Fatalf("api key = %q, want env-key", cfg.Gemini.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.Temperature = 5
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "gemini.temperature") || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCookiesProfileRequiresBrowser(t *testing.T) {
	cfg := config.Default()
	cfg.Fetch.CookiesProfile = "Default"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for cookies_profile without browser")
	}
}
