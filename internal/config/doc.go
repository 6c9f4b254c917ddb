// Package config loads, validates, and normalizes reframe configuration
// from TOML files with sensible defaults for the pipeline directories.
package config
