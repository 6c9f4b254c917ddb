// Package services defines the shared error taxonomy for external
// collaborators (yt-dlp, the Gemini API) and the exit-code mapping the CLI
// uses when a pipeline run fails.
package services
