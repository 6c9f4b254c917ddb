// Package artifacts locates stage output files and owns the filename
// conventions for analysis reports and sequence guides.
//
// Stages name their own output (yt-dlp derives filenames from the media
// title, report and sequence names embed a generation timestamp), so the
// orchestrator cannot predict paths in advance. The resolver bridges that
// gap: given a directory and glob patterns in priority order it returns
// the most recently modified match.
package artifacts
