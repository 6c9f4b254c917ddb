package history

import "time"

// Status mirrors the orchestrator state machine for a persisted run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusFetching   Status = "fetching"
	StatusAnalyzing  Status = "analyzing"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// InputKind records how the run's input was classified.
const (
	InputKindLocalFile = "local_file"
	InputKindRemoteURL = "remote_url"
)

// Run is one pipeline execution.
type Run struct {
	ID            int64
	RunID         string
	Input         string
	InputKind     string
	Status        Status
	MediaPath     string
	ReportPath    string
	SequencesPath string
	ErrorMessage  string
	ExitCode      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Terminal reports whether the run reached a final state.
func (r *Run) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// SetFailed marks the run failed with the given message and exit code.
func (r *Run) SetFailed(message string, exitCode int) {
	r.Status = StatusFailed
	r.ErrorMessage = message
	r.ExitCode = exitCode
}
