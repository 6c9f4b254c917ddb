package artifacts

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound signals that no entry matched any pattern, or that the query
// directory does not exist. Callers decide whether that is fatal.
var ErrNotFound = errors.New("no matching artifact")

// Query describes an artifact lookup: a directory and one or more filename
// glob patterns tried in priority order.
type Query struct {
	Dir      string
	Patterns []string
}

// Record is the resolved result of a Query.
type Record struct {
	Path    string
	ModTime time.Time
}

// Resolve lists the query directory and returns the most recently modified
// entry matching the first pattern that yields any match. Equal
// modification times are broken by lexicographically greatest filename so
// resolution is deterministic for a given directory state.
func Resolve(q Query) (Record, error) {
	entries, err := os.ReadDir(q.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	for _, pattern := range q.Patterns {
		record, ok := newestMatch(q.Dir, entries, pattern)
		if ok {
			return record, nil
		}
	}
	return Record{}, ErrNotFound
}

func newestMatch(dir string, entries []fs.DirEntry, pattern string) (Record, bool) {
	var (
		best      Record
		bestName  string
		haveMatch bool
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		matched, err := filepath.Match(pattern, name)
		if err != nil || !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !haveMatch || info.ModTime().After(best.ModTime) ||
			(info.ModTime().Equal(best.ModTime) && name > bestName) {
			best = Record{Path: filepath.Join(dir, name), ModTime: info.ModTime()}
			bestName = name
			haveMatch = true
		}
	}
	return best, haveMatch
}

// Pattern sets for the three handoff directories. The media patterns try
// the expected container first and fall back to anything, since a fetch
// can produce an unexpected format.
var (
	MediaPatterns     = []string{"*.mp4", "*"}
	ReportPatterns    = []string{"*_analysis_*.md"}
	SequencesPatterns = []string{"*_sequences_*.md"}
)
