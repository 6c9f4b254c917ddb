package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"reframe/internal/artifacts"
	"reframe/internal/config"
	"reframe/internal/history"
	"reframe/internal/logging"
	"reframe/internal/services"
)

const lockFileName = "reframe.lock"

// Stages bundles the three pipeline stages in execution order.
type Stages struct {
	Fetch     Stage
	Analysis  Stage
	Sequences Stage
}

// Summary describes a completed run for presentation.
type Summary struct {
	RunID         string
	Input         string
	InputKind     string
	MediaPath     string
	ReportPath    string
	SequencesPath string
	Elapsed       time.Duration
}

// Orchestrator drives a run through the stage chain, persisting state
// transitions to the history store as it goes.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store
	stages Stages
}

// New builds an orchestrator. The store may be nil, in which case run
// history is not recorded.
func New(cfg *config.Config, logger *slog.Logger, store *history.Store, stages Stages) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		store:  store,
		stages: stages,
	}
}

// Run executes the pipeline for input. Exactly one run may be active per
// log directory; a second concurrent invocation fails immediately rather
// than queueing.
func (o *Orchestrator) Run(ctx context.Context, input string) (*Summary, error) {
	if err := o.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare directories", "", err)
	}

	lock := flock.New(filepath.Join(o.cfg.Paths.LogDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "acquire lock", "", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "acquire lock",
			"another run is already in progress", nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	kind, err := ClassifyInput(input)
	if err != nil {
		return nil, err
	}

	run, err := o.newRun(ctx, input, kind)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithRunID(ctx, run.RunID)
	started := time.Now()
	o.logger.InfoContext(ctx, "run started",
		logging.String(logging.FieldRunID, run.RunID),
		logging.String("input", input),
		logging.String("input_kind", kind))

	summary := &Summary{RunID: run.RunID, Input: input, InputKind: kind}
	if err := o.execute(ctx, run, summary); err != nil {
		o.failRun(ctx, run, err)
		return nil, err
	}

	summary.Elapsed = time.Since(started)
	run.Status = history.StatusCompleted
	run.MediaPath = summary.MediaPath
	run.ReportPath = summary.ReportPath
	run.SequencesPath = summary.SequencesPath
	o.updateRun(ctx, run)

	o.logger.InfoContext(ctx, "run completed",
		logging.String(logging.FieldRunID, run.RunID),
		logging.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *history.Run, summary *Summary) error {
	mediaPath, err := o.resolveMedia(ctx, run, summary)
	if err != nil {
		return err
	}
	summary.MediaPath = mediaPath
	run.MediaPath = mediaPath

	reportPath, err := o.runAnalysis(ctx, run, mediaPath)
	if err != nil {
		return err
	}
	summary.ReportPath = reportPath
	run.ReportPath = reportPath

	sequencesPath, err := o.runSequences(ctx, run, reportPath)
	if err != nil {
		return err
	}
	summary.SequencesPath = sequencesPath
	return nil
}

// resolveMedia produces the media file for analysis. Remote inputs go
// through the fetch stage and the download directory; local inputs are used
// in place without copying.
func (o *Orchestrator) resolveMedia(ctx context.Context, run *history.Run, summary *Summary) (string, error) {
	if summary.InputKind == history.InputKindLocalFile {
		return summary.Input, nil
	}

	run.Status = history.StatusFetching
	o.updateRun(ctx, run)

	result, err := o.runStage(ctx, o.stages.Fetch, Request{Source: summary.Input, RunID: run.RunID})
	if err != nil {
		return "", err
	}
	if result.ArtifactPath != "" {
		return result.ArtifactPath, nil
	}

	record, err := artifacts.Resolve(artifacts.Query{
		Dir:      o.cfg.Paths.DownloadDir,
		Patterns: artifacts.MediaPatterns,
	})
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			return "", services.Wrap(services.ErrNotFound, o.stages.Fetch.Name(), "locate download",
				fmt.Sprintf("no media file found in %s", o.cfg.Paths.DownloadDir), nil)
		}
		return "", services.Wrap(services.ErrTransient, o.stages.Fetch.Name(), "locate download", "", err)
	}
	return record.Path, nil
}

func (o *Orchestrator) runAnalysis(ctx context.Context, run *history.Run, mediaPath string) (string, error) {
	run.Status = history.StatusAnalyzing
	o.updateRun(ctx, run)

	result, err := o.runStage(ctx, o.stages.Analysis, Request{Source: mediaPath, RunID: run.RunID})
	if err != nil {
		return "", err
	}
	if result.ArtifactPath != "" {
		return result.ArtifactPath, nil
	}

	record, err := artifacts.Resolve(artifacts.Query{
		Dir:      o.cfg.Paths.ReportsDir,
		Patterns: artifacts.ReportPatterns,
	})
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			return "", services.Wrap(services.ErrNotFound, o.stages.Analysis.Name(), "locate report",
				fmt.Sprintf("no analysis report found in %s", o.cfg.Paths.ReportsDir), nil)
		}
		return "", services.Wrap(services.ErrTransient, o.stages.Analysis.Name(), "locate report", "", err)
	}
	return record.Path, nil
}

// runSequences runs the final stage. A stage failure is fatal like any
// other, but a missing output file after a successful stage is tolerated
// and surfaces as an empty path in the summary.
func (o *Orchestrator) runSequences(ctx context.Context, run *history.Run, reportPath string) (string, error) {
	run.Status = history.StatusGenerating
	o.updateRun(ctx, run)

	result, err := o.runStage(ctx, o.stages.Sequences, Request{Source: reportPath, RunID: run.RunID})
	if err != nil {
		return "", err
	}
	if result.ArtifactPath != "" {
		return result.ArtifactPath, nil
	}

	record, err := artifacts.Resolve(artifacts.Query{
		Dir:      o.cfg.Paths.SequencesDir,
		Patterns: artifacts.SequencesPatterns,
	})
	if err != nil {
		o.logger.WarnContext(ctx, "sequences output not found after stage completion",
			logging.String(logging.FieldStage, o.stages.Sequences.Name()),
			logging.String("dir", o.cfg.Paths.SequencesDir))
		return "", nil
	}
	return record.Path, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, req Request) (Result, error) {
	stageCtx := logging.WithStage(ctx, stage.Name())
	logger := logging.WithContext(stageCtx, o.logger)

	logger.InfoContext(stageCtx, "stage started",
		logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()

	result, err := stage.Run(stageCtx, req)
	if err != nil {
		logger.ErrorContext(stageCtx, "stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err))
		return Result{}, err
	}

	logger.InfoContext(stageCtx, "stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)))
	return result, nil
}

func (o *Orchestrator) newRun(ctx context.Context, input, kind string) (*history.Run, error) {
	if o.store == nil {
		return &history.Run{Input: input, InputKind: kind, Status: history.StatusPending}, nil
	}
	run, err := o.store.NewRun(ctx, input, kind)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "record run", "", err)
	}
	return run, nil
}

func (o *Orchestrator) updateRun(ctx context.Context, run *history.Run) {
	if o.store == nil || run.ID == 0 {
		return
	}
	if err := o.store.Update(ctx, run); err != nil {
		o.logger.WarnContext(ctx, "failed to persist run state",
			logging.String(logging.FieldRunID, run.RunID),
			logging.Error(err))
	}
}

func (o *Orchestrator) failRun(ctx context.Context, run *history.Run, err error) {
	run.SetFailed(err.Error(), services.ExitCode(err))
	o.updateRun(ctx, run)
	o.logger.ErrorContext(ctx, "run failed",
		logging.String(logging.FieldRunID, run.RunID),
		logging.Int("exit_code", run.ExitCode),
		logging.Error(err))
}
