package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"reframe/internal/logging"
	"reframe/internal/services"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Config captures the runtime settings for yt-dlp invocations.
type Config struct {
	Binary             string
	FFmpegBinary       string
	CookiesFromBrowser string
	CookiesProfile     string
	CookiesFile        string
	MaxHeight          int
}

// Client drives yt-dlp as an external process.
type Client struct {
	cfg      Config
	lookPath func(string) (string, error)
	runner   func(ctx context.Context, name string, args ...string) error
}

// Option customizes the client.
type Option func(*Client)

// WithLookPath overrides binary discovery (useful for tests).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(c *Client) {
		if fn != nil {
			c.lookPath = fn
		}
	}
}

// WithCommandRunner overrides process execution (useful for tests).
func WithCommandRunner(fn func(ctx context.Context, name string, args ...string) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.runner = fn
		}
	}
}

// NewClient constructs a yt-dlp client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "yt-dlp"
	}
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = 1080
	}
	client := &Client{cfg: cfg, lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Download fetches url into destDir, merging separate audio and video
// streams when ffmpeg is available and falling back to progressive formats
// otherwise. On a non-zero exit the returned error carries yt-dlp's exit
// code verbatim.
func (c *Client) Download(ctx context.Context, url, destDir string, logger *slog.Logger) error {
	if strings.TrimSpace(url) == "" {
		return services.Wrap(services.ErrValidation, "fetch", "download", "url required", nil)
	}
	if strings.TrimSpace(destDir) == "" {
		return services.Wrap(services.ErrValidation, "fetch", "download", "destination directory required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	ffmpegOK := c.ffmpegAvailable()
	if !ffmpegOK {
		logger.Warn("ffmpeg not found; falling back to progressive formats",
			logging.String("ffmpeg_binary", c.cfg.FFmpegBinary))
	}

	args := c.buildArgs(url, destDir, ffmpegOK)
	logger.Info("launching yt-dlp",
		logging.String("url", url),
		logging.String("dest_dir", destDir),
		logging.Bool("merge_formats", ffmpegOK))

	if err := c.run(ctx, args); err != nil {
		return err
	}
	return nil
}

// Available reports whether the configured yt-dlp binary is on PATH.
func (c *Client) Available() bool {
	_, err := c.lookPath(c.cfg.Binary)
	return err == nil
}

func (c *Client) ffmpegAvailable() bool {
	_, err := c.lookPath(c.cfg.FFmpegBinary)
	return err == nil
}

// Format selectors mirror the download policy: audio must always be
// included. With ffmpeg the best video and audio streams are fetched
// separately and merged into mp4; without it only progressive single-file
// formats that already carry an audio codec are considered.
func (c *Client) buildArgs(url, destDir string, ffmpegOK bool) []string {
	height := c.cfg.MaxHeight
	mergeFormat := fmt.Sprintf(
		"bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio/best[height<=?%d]/best", height)
	progressiveFormat := fmt.Sprintf(
		"best[ext=mp4][acodec!=none]/best[height<=?%d][acodec!=none]/best", height)

	args := []string{
		"--no-playlist",
		"--user-agent", userAgent,
		"--output", filepath.Join(destDir, "%(title)s.%(ext)s"),
	}
	if ffmpegOK {
		args = append(args, "--format", mergeFormat, "--merge-output-format", "mp4")
	} else {
		args = append(args, "--format", progressiveFormat)
	}
	if c.cfg.CookiesFromBrowser != "" {
		spec := c.cfg.CookiesFromBrowser
		if c.cfg.CookiesProfile != "" {
			spec += ":" + c.cfg.CookiesProfile
		}
		args = append(args, "--cookies-from-browser", spec)
	}
	if c.cfg.CookiesFile != "" {
		args = append(args, "--cookies", c.cfg.CookiesFile)
	}
	return append(args, url)
}

func (c *Client) run(ctx context.Context, args []string) error {
	if c.runner != nil {
		return c.runner(ctx, c.cfg.Binary, args...)
	}

	cmd := exec.CommandContext(ctx, c.cfg.Binary, args...) //nolint:gosec
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			wrapped := services.Wrap(services.ErrExternalTool, "fetch", "yt-dlp",
				outputTail(output.String()), err)
			return services.WithExitCode(wrapped, exitErr.ExitCode())
		}
		return services.Wrap(services.ErrExternalTool, "fetch", "yt-dlp", "failed to start", err)
	}
	return nil
}

// outputTail keeps the last few lines of combined output for error
// messages; yt-dlp prints its actionable diagnostics last.
func outputTail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	const keep = 5
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
