package pipeline

import "context"

// Request carries the stage input. Source is the stage-specific subject: a
// URL for fetch, a media path for analysis, a report path for sequences.
type Request struct {
	Source string
	RunID  string
}

// Result reports what a stage produced. Stages that write their own output
// file return its path; stages whose collaborator names the output file
// itself leave ArtifactPath empty and the orchestrator resolves it from the
// handoff directory.
type Result struct {
	ArtifactPath string
}

// Stage is one unit of pipeline work.
type Stage interface {
	Name() string
	Run(ctx context.Context, req Request) (Result, error)
}
