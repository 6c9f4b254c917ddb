package pipeline

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"reframe/internal/history"
	"reframe/internal/services"
)

// ClassifyInput decides whether input names a remote URL or a local media
// file. Local inputs must exist and be regular files before a run starts.
func ClassifyInput(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "pipeline", "classify input", "input is required", nil)
	}

	if isRemoteURL(trimmed) {
		return history.InputKindRemoteURL, nil
	}

	info, err := os.Stat(trimmed)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "pipeline", "classify input",
			fmt.Sprintf("local file %s not found", trimmed), err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "pipeline", "classify input",
			fmt.Sprintf("%s is a directory, not a media file", trimmed), nil)
	}
	return history.InputKindLocalFile, nil
}

func isRemoteURL(input string) bool {
	parsed, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
