package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"reframe/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "fetch", "download", "yt-dlp failed", errors.New("boom"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("marker lost: %v", err)
	}
	for _, fragment := range []string{"fetch", "download", "yt-dlp failed", "boom"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("missing %q in %q", fragment, err.Error())
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "analyze", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker: %v", err)
	}
}

func TestExitCodePropagation(t *testing.T) {
	base := services.Wrap(services.ErrExternalTool, "fetch", "download", "exit status 2", nil)
	err := services.WithExitCode(base, 2)

	if got := services.ExitCode(err); got != 2 {
		t.Fatalf("ExitCode = %d, want 2", got)
	}
	// Wrapping again must not lose the code.
	wrapped := fmt.Errorf("pipeline: %w", err)
	if got := services.ExitCode(wrapped); got != 2 {
		t.Fatalf("ExitCode through wrap = %d, want 2", got)
	}
	if !errors.Is(wrapped, services.ErrExternalTool) {
		t.Fatalf("marker lost through exit code wrapper")
	}
}

func TestExitCodeDefaults(t *testing.T) {
	if got := services.ExitCode(nil); got != 0 {
		t.Fatalf("ExitCode(nil) = %d, want 0", got)
	}
	if got := services.ExitCode(errors.New("plain")); got != 1 {
		t.Fatalf("ExitCode(plain) = %d, want 1", got)
	}
	if got := services.ExitCode(services.WithExitCode(errors.New("zeroed"), 0)); got != 1 {
		t.Fatalf("normalized code = %d, want 1", got)
	}
}
