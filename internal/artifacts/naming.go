package artifacts

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	analysisMarker  = "_analysis_"
	sequencesMarker = "_sequences_"
	timestampLayout = "20060102_150405"
)

// ReportFileName builds the analysis report filename for a media file:
// <source-basename>_analysis_<YYYYMMDD_HHMMSS>.md.
func ReportFileName(mediaPath string, ts time.Time) string {
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	return base + analysisMarker + ts.Format(timestampLayout) + ".md"
}

// SequencesFileName builds the sequence guide filename for a report file:
// <report-basename>_sequences_<YYYYMMDD_HHMMSS>.md, with the report's
// trailing analysis marker and timestamp stripped first so the guide keeps
// the original media's base name.
func SequencesFileName(reportPath string, ts time.Time) string {
	base := strings.TrimSuffix(filepath.Base(reportPath), filepath.Ext(reportPath))
	if idx := strings.LastIndex(base, analysisMarker); idx > 0 {
		base = base[:idx]
	}
	return base + sequencesMarker + ts.Format(timestampLayout) + ".md"
}
