// Package ytdlp wraps the yt-dlp command-line downloader used by the fetch
// stage. Prefer this package over ad-hoc exec.Command usage when fetching
// remote media.
package ytdlp
