// Package fetch is the pipeline stage that materializes remote media into
// the download directory via yt-dlp.
package fetch

import (
	"context"
	"log/slog"

	"reframe/internal/config"
	"reframe/internal/logging"
	"reframe/internal/pipeline"
	"reframe/internal/services"
)

// Downloader retrieves a URL into a destination directory. It is satisfied
// by ytdlp.Client.
type Downloader interface {
	Download(ctx context.Context, url, destDir string, logger *slog.Logger) error
}

// Stage downloads the run's source URL. The downloader names its own output
// files, so the stage reports no artifact path and the orchestrator resolves
// the newest file from the download directory instead.
type Stage struct {
	cfg        *config.Config
	downloader Downloader
	logger     *slog.Logger
}

func New(cfg *config.Config, downloader Downloader, logger *slog.Logger) *Stage {
	return &Stage{
		cfg:        cfg,
		downloader: downloader,
		logger:     logging.NewComponentLogger(logger, "fetch"),
	}
}

func (s *Stage) Name() string { return "fetch" }

func (s *Stage) Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	if req.Source == "" {
		return pipeline.Result{}, services.Wrap(services.ErrValidation, s.Name(), "download", "url is required", nil)
	}

	s.logger.InfoContext(ctx, "downloading media",
		logging.String("url", req.Source),
		logging.String("dest", s.cfg.Paths.DownloadDir))

	if err := s.downloader.Download(ctx, req.Source, s.cfg.Paths.DownloadDir, s.logger); err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Result{}, nil
}
