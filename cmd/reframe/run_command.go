package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reframe/internal/analysis"
	"reframe/internal/fetch"
	"reframe/internal/history"
	"reframe/internal/logging"
	"reframe/internal/pipeline"
	"reframe/internal/sequences"
	"reframe/internal/services/gemini"
	"reframe/internal/services/ytdlp"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <url-or-file>",
		Short: "Run the full pipeline for a video URL or local media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			downloader := ytdlp.NewClient(ytdlp.Config{
				Binary:             cfg.Fetch.Binary,
				FFmpegBinary:       cfg.Fetch.FFmpegBinary,
				CookiesFromBrowser: cfg.Fetch.CookiesFromBrowser,
				CookiesProfile:     cfg.Fetch.CookiesProfile,
				CookiesFile:        cfg.Fetch.CookiesFile,
				MaxHeight:          cfg.Fetch.MaxHeight,
			})
			generator := gemini.NewClient(gemini.Config{
				APIKey:           cfg.Gemini.APIKey,
				BaseURL:          cfg.Gemini.BaseURL,
				Model:            cfg.Gemini.Model,
				Temperature:      cfg.Gemini.Temperature,
				TimeoutSeconds:   cfg.Gemini.TimeoutSeconds,
				InlineLimitBytes: int64(cfg.Gemini.InlineLimitMiB) << 20,
			})

			orchestrator := pipeline.New(cfg, logger, store, pipeline.Stages{
				Fetch:     fetch.New(cfg, downloader, logger),
				Analysis:  analysis.New(cfg, generator, logger),
				Sequences: sequences.New(cfg, generator, logger),
			})

			summary, err := orchestrator.Run(ctx, args[0])
			if err != nil {
				return err
			}

			printSummary(cmd, summary)
			return nil
		},
	}
}

func printSummary(cmd *cobra.Command, summary *pipeline.Summary) {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"Run", summary.RunID},
		{"Input", summary.Input},
		{"Media", summary.MediaPath},
		{"Report", summary.ReportPath},
		{"Sequences", valueOrNote(summary.SequencesPath, "not produced")},
		{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()},
	}
	fmt.Fprintln(out, renderKeyValues(out, rows))
}

func valueOrNote(value, note string) string {
	if value == "" {
		return note
	}
	return value
}
