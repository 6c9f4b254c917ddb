// Package sequences is the pipeline stage that turns an analysis report
// into a sequence guide via the Gemini API.
package sequences

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

// Generator produces text from a pair of prompts. It is satisfied by
// gemini.Client.
type Generator interface {
	GenerateFromText(ctx context.Context, systemPrompt, userText string) (string, error)
}

type Stage struct {
	cfg       *config.Config
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Stage)

// WithClock overrides the timestamp source used for output filenames.
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
		logger:    logging.NewComponentLogger(logger, "sequences"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(stage)
	}
	return stage
}

func (s *Stage) Name() string { return "sequences" }

func (s *Stage) Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	report, err := os.ReadFile(req.Source)
	if err != nil {
		return pipeline.Result{}, services.Wrap(services.ErrValidation, s.Name(), "read report",
			fmt.Sprintf("report file %s not readable", req.Source), err)
	}
	if strings.TrimSpace(string(report)) == "" {
		return pipeline.Result{}, services.Wrap(services.ErrValidation, s.Name(), "read report",
			fmt.Sprintf("report file %s is empty", req.Source), nil)
	}

	s.logger.InfoContext(ctx, "generating sequence guide", logging.String("report", req.Source))

	guide, err := s.generator.GenerateFromText(ctx, systemPrompt, userPrompt(string(report)))
	if err != nil {
		return pipeline.Result{}, services.Wrap(services.ErrExternalTool, s.Name(), "generate guide", "", err)
	}
	if strings.TrimSpace(guide) == "" {
		return pipeline.Result{}, services.Wrap(services.ErrExternalTool, s.Name(), "generate guide",
			"model returned an empty guide", nil)
	}

	guidePath := filepath.Join(s.cfg.Paths.SequencesDir, artifacts.SequencesFileName(req.Source, s.now()))
	if err := os.WriteFile(guidePath, []byte(guide), 0o644); err != nil {
		return pipeline.Result{}, services.Wrap(services.ErrConfiguration, s.Name(), "write guide", "", err)
	}

	s.logger.InfoContext(ctx, "sequence guide written", logging.String("guide", guidePath))
	return pipeline.Result{ArtifactPath: guidePath}, nil
}
