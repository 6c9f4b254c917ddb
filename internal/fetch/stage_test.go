package fetch_test

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"reframe/internal/config"
	"reframe/internal/fetch"
	"reframe/internal/logging"
	"reframe/internal/pipeline"
	"reframe/internal/services"
)

type stubDownloader struct {
	calls   int
	gotURL  string
	gotDest string
	err     error
}

func (d *stubDownloader) Download(_ context.Context, url, destDir string, _ *slog.Logger) error {
	d.calls++
	d.gotURL = url
	d.gotDest = destDir
	return d.err
}

func newStage(t *testing.T, downloader fetch.Downloader) (*fetch.Stage, config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(t.TempDir(), "downloads")
	return fetch.New(&cfg, downloader, logging.NewNop()), cfg
}

func TestRunDelegatesToDownloader(t *testing.T) {
	downloader := &stubDownloader{}
	stage, cfg := newStage(t, downloader)

	result, err := stage.Run(context.Background(), pipeline.Request{Source: "https://example.com/v"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ArtifactPath != "" {
		t.Fatalf("artifact path = %q, want empty", result.ArtifactPath)
	}
	if downloader.gotURL != "https://example.com/v" || downloader.gotDest != cfg.Paths.DownloadDir {
		t.Fatalf("downloader got url=%q dest=%q", downloader.gotURL, downloader.gotDest)
	}
}

func TestRunPropagatesDownloaderError(t *testing.T) {
	wrapped := services.WithExitCode(
		services.Wrap(services.ErrExternalTool, "fetch", "yt-dlp", "network unreachable", nil), 2)
	stage, _ := newStage(t, &stubDownloader{err: wrapped})

	_, err := stage.Run(context.Background(), pipeline.Request{Source: "https://example.com/v"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunRejectsEmptyURL(t *testing.T) {
	downloader := &stubDownloader{}
	stage, _ := newStage(t, downloader)

	_, err := stage.Run(context.Background(), pipeline.Request{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if downloader.calls != 0 {
		t.Fatal("downloader invoked for empty url")
	}
}
