package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"reframe/internal/config"
	"reframe/internal/history"
	"reframe/internal/logging"
	"reframe/internal/pipeline"
	"reframe/internal/services"
	"reframe/internal/testsupport"
)

type stubStage struct {
	name  string
	calls int
	run   func(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	s.calls++
	if s.run == nil {
		return pipeline.Result{}, nil
	}
	return s.run(ctx, req)
}

type fixture struct {
	cfg       config.Config
	store     *history.Store
	fetch     *stubStage
	analysis  *stubStage
	sequences *stubStage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	store, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{
		cfg:       cfg,
		store:     store,
		fetch:     &stubStage{name: "fetch"},
		analysis:  &stubStage{name: "analysis"},
		sequences: &stubStage{name: "sequences"},
	}
}

func (f *fixture) orchestrator() *pipeline.Orchestrator {
	return pipeline.New(&f.cfg, logging.NewNop(), f.store, pipeline.Stages{
		Fetch:     f.fetch,
		Analysis:  f.analysis,
		Sequences: f.sequences,
	})
}

func (f *fixture) writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	return testsupport.WriteFile(t, filepath.Join(dir, name), "content")
}

func (f *fixture) lastRun(t *testing.T) *history.Run {
	t.Helper()
	runs, err := f.store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) == 0 {
		t.Fatal("no runs recorded")
	}
	return runs[0]
}

func TestRunLocalFileSkipsFetch(t *testing.T) {
	f := newFixture(t)
	media := f.writeFile(t, t.TempDir(), "clip.mp4")

	var reportPath, sequencesPath string
	f.analysis.run = func(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
		if req.Source != media {
			t.Errorf("analysis source = %q, want %q", req.Source, media)
		}
		reportPath = f.writeFile(t, f.cfg.Paths.ReportsDir, "clip_analysis_20260101_120000.md")
		return pipeline.Result{ArtifactPath: reportPath}, nil
	}
	f.sequences.run = func(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
		if req.Source != reportPath {
			t.Errorf("sequences source = %q, want %q", req.Source, reportPath)
		}
		sequencesPath = f.writeFile(t, f.cfg.Paths.SequencesDir, "clip_sequences_20260101_120500.md")
		return pipeline.Result{ArtifactPath: sequencesPath}, nil
	}

	summary, err := f.orchestrator().Run(context.Background(), media)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.fetch.calls != 0 {
		t.Fatalf("fetch called %d times for local input", f.fetch.calls)
	}
	if summary.MediaPath != media || summary.ReportPath != reportPath || summary.SequencesPath != sequencesPath {
		t.Fatalf("summary paths wrong: %+v", summary)
	}

	run := f.lastRun(t)
	if run.Status != history.StatusCompleted {
		t.Fatalf("run status = %q", run.Status)
	}
	if run.InputKind != history.InputKindLocalFile {
		t.Fatalf("input kind = %q", run.InputKind)
	}
}

func TestRunRemoteURLResolvesDownload(t *testing.T) {
	f := newFixture(t)

	var downloaded string
	f.fetch.run = func(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
		if req.Source != "https://example.com/watch?v=abc" {
			t.Errorf("fetch source = %q", req.Source)
		}
		downloaded = f.writeFile(t, f.cfg.Paths.DownloadDir, "My Video.mp4")
		return pipeline.Result{}, nil
	}
	f.analysis.run = func(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
		if req.Source != downloaded {
			t.Errorf("analysis source = %q, want %q", req.Source, downloaded)
		}
		return pipeline.Result{ArtifactPath: f.writeFile(t, f.cfg.Paths.ReportsDir, "My Video_analysis_20260101_120000.md")}, nil
	}
	f.sequences.run = func(context.Context, pipeline.Request) (pipeline.Result, error) {
		return pipeline.Result{ArtifactPath: f.writeFile(t, f.cfg.Paths.SequencesDir, "My Video_sequences_20260101_120500.md")}, nil
	}

	summary, err := f.orchestrator().Run(context.Background(), "https://example.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.fetch.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", f.fetch.calls)
	}
	if summary.MediaPath != downloaded {
		t.Fatalf("media path = %q, want %q", summary.MediaPath, downloaded)
	}
	if run := f.lastRun(t); run.InputKind != history.InputKindRemoteURL {
		t.Fatalf("input kind = %q", run.InputKind)
	}
}

func TestRunFetchFailurePropagatesExitCode(t *testing.T) {
	f := newFixture(t)
	f.fetch.run = func(context.Context, pipeline.Request) (pipeline.Result, error) {
		err := services.Wrap(services.ErrExternalTool, "fetch", "yt-dlp", "download failed", nil)
		return pipeline.Result{}, services.WithExitCode(err, 2)
	}

	_, err := f.orchestrator().Run(context.Background(), "https://example.com/v")
	if err == nil {
		t.Fatal("expected error")
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if f.analysis.calls != 0 || f.sequences.calls != 0 {
		t.Fatal("later stages ran after fetch failure")
	}

	run := f.lastRun(t)
	if run.Status != history.StatusFailed || run.ExitCode != 2 {
		t.Fatalf("run status=%q exit=%d", run.Status, run.ExitCode)
	}
	if run.ErrorMessage == "" {
		t.Fatal("error message not recorded")
	}
}

func TestRunFetchWithEmptyDownloadDirFails(t *testing.T) {
	f := newFixture(t)
	f.fetch.run = func(context.Context, pipeline.Request) (pipeline.Result, error) {
		return pipeline.Result{}, nil
	}

	_, err := f.orchestrator().Run(context.Background(), "https://example.com/v")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if f.analysis.calls != 0 {
		t.Fatal("analysis ran without media")
	}
}

func TestRunAnalysisWithoutReportFails(t *testing.T) {
	f := newFixture(t)
	media := f.writeFile(t, t.TempDir(), "clip.mp4")
	f.analysis.run = func(context.Context, pipeline.Request) (pipeline.Result, error) {
		return pipeline.Result{}, nil
	}

	_, err := f.orchestrator().Run(context.Background(), media)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if f.sequences.calls != 0 {
		t.Fatal("sequences ran without a report")
	}
	if run := f.lastRun(t); run.Status != history.StatusFailed {
		t.Fatalf("run status = %q", run.Status)
	}
}

func TestRunMissingSequencesOutputIsTolerated(t *testing.T) {
	f := newFixture(t)
	media := f.writeFile(t, t.TempDir(), "clip.mp4")
	f.analysis.run = func(context.Context, pipeline.Request) (pipeline.Result, error) {
		return pipeline.Result{ArtifactPath: f.writeFile(t, f.cfg.Paths.ReportsDir, "clip_analysis_20260101_120000.md")}, nil
	}
	f.sequences.run = func(context.Context, pipeline.Request) (pipeline.Result, error) {
		return pipeline.Result{}, nil
	}

	summary, err := f.orchestrator().Run(context.Background(), media)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.SequencesPath != "" {
		t.Fatalf("sequences path = %q, want empty", summary.SequencesPath)
	}
	if run := f.lastRun(t); run.Status != history.StatusCompleted {
		t.Fatalf("run status = %q", run.Status)
	}
}

func TestRunSequencesFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	media := f.writeFile(t, t.TempDir(), "clip.mp4")
	f.analysis.run = func(context.Context, pipeline.Request) (pipeline.Result, error) {
		return pipeline.Result{ArtifactPath: f.writeFile(t, f.cfg.Paths.ReportsDir, "clip_analysis_20260101_120000.md")}, nil
	}
	f.sequences.run = func(context.Context, pipeline.Request) (pipeline.Result, error) {
		return pipeline.Result{}, services.Wrap(services.ErrExternalTool, "sequences", "generate", "model rejected request", nil)
	}

	_, err := f.orchestrator().Run(context.Background(), media)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
	if run := f.lastRun(t); run.Status != history.StatusFailed || run.ExitCode != 1 {
		t.Fatalf("run status=%q exit=%d", run.Status, run.ExitCode)
	}
}

func TestRunInvalidInputFailsBeforeStages(t *testing.T) {
	f := newFixture(t)

	_, err := f.orchestrator().Run(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if f.fetch.calls != 0 || f.analysis.calls != 0 {
		t.Fatal("stages ran for invalid input")
	}
}

func TestRunRefusesConcurrentExecution(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(f.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}

	held := flock.New(filepath.Join(f.cfg.Paths.LogDir, "reframe.lock"))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not take lock for test: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	_, err = f.orchestrator().Run(context.Background(), "https://example.com/v")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
