// Package logging provides the slog construction and shared structured
// field conventions used across the pipeline.
package logging
