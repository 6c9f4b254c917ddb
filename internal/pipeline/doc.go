// Package pipeline chains the fetch, analysis, and sequence generation
// stages into a single run. The orchestrator owns run state transitions,
// artifact handoff between stages, and fail-fast error propagation.
package pipeline
