// Package analysis is the pipeline stage that submits media to the Gemini
// API and writes the resulting Markdown analysis report.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reframe/internal/artifacts"
	"reframe/internal/config"
	"reframe/internal/logging"
	"reframe/internal/pipeline"
	"reframe/internal/services"
)

// Generator produces text from a media file and a pair of prompts. It is
// satisfied by gemini.Client.
type Generator interface {
	GenerateFromMedia(ctx context.Context, systemPrompt, userText, mediaPath string) (string, error)
}

type Stage struct {
	cfg       *config.Config
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Stage)

// WithClock overrides the timestamp source used for report filenames.
func WithClock(now func() time.Time) Option {
	return func(s *Stage) {
		if now != nil {
			s.now = now
		}
	}
}

func New(cfg *config.Config, generator Generator, logger *slog.Logger, opts ...Option) *Stage {
	stage := &Stage{
		cfg:       cfg,
		generator: generator,
		logger:    logging.NewComponentLogger(logger, "analysis"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(stage)
	}
	return stage
}

func (s *Stage) Name() string { return "analysis" }

func (s *Stage) Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	info, err := os.Stat(req.Source)
	if err != nil {
		return pipeline.Result{}, services.Wrap(services.ErrValidation, s.Name(), "open media",
			fmt.Sprintf("media file %s not found", req.Source), err)
	}
	if info.IsDir() {
		return pipeline.Result{}, services.Wrap(services.ErrValidation, s.Name(), "open media",
			fmt.Sprintf("%s is a directory", req.Source), nil)
	}

	s.logger.InfoContext(ctx, "analyzing media",
		logging.String("media", req.Source),
		logging.Int64("size_bytes", info.Size()))

	report, err := s.generator.GenerateFromMedia(ctx, systemPrompt, userPrompt(req.Source), req.Source)
	if err != nil {
		return pipeline.Result{}, services.Wrap(services.ErrExternalTool, s.Name(), "generate report", "", err)
	}
	if strings.TrimSpace(report) == "" {
		return pipeline.Result{}, services.Wrap(services.ErrExternalTool, s.Name(), "generate report",
			"model returned an empty report", nil)
	}

	reportPath := filepath.Join(s.cfg.Paths.ReportsDir, artifacts.ReportFileName(req.Source, s.now()))
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return pipeline.Result{}, services.Wrap(services.ErrConfiguration, s.Name(), "write report", "", err)
	}

	s.logger.InfoContext(ctx, "report written", logging.String("report", reportPath))
	return pipeline.Result{ArtifactPath: reportPath}, nil
}
