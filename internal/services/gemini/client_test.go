package gemini_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"reframe/internal/services/gemini"
)

func candidateResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]},"finishReason":"STOP"}]}`, text)
}

func newTestClient(t *testing.T, baseURL string, opts ...gemini.Option) *gemini.Client {
	t.Helper()
	cfg := gemini.Config{
		APIKey:           "test-key",
		BaseURL:          baseURL,
		Model:            "gemini-test",
		Temperature:      0.1,
		InlineLimitBytes: 64,
	}
	opts = append(opts, gemini.WithSleeper(func(time.Duration) {}), gemini.WithPollInterval(time.Millisecond))
	return gemini.NewClient(cfg, opts...)
}

func TestGenerateFromText(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		fmt.Fprint(w, candidateResponse("# Report"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.GenerateFromText(context.Background(), "system", "user input")
	if err != nil {
		t.Fatalf("GenerateFromText: %v", err)
	}
	if text != "# Report" {
		t.Fatalf("text = %q", text)
	}
	if gotPath != "/v1beta/models/gemini-test:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if _, ok := gotBody["system_instruction"]; !ok {
		t.Fatalf("system instruction missing from request: %v", gotBody)
	}
}

func TestGenerateFromMediaInlineUnderLimit(t *testing.T) {
	media := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(media, []byte("tiny"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}

	var rawBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rawBody = string(body)
		fmt.Fprint(w, candidateResponse("ok"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.GenerateFromMedia(context.Background(), "system", "analyze", media); err != nil {
		t.Fatalf("GenerateFromMedia: %v", err)
	}
	if !strings.Contains(rawBody, "inline_data") {
		t.Fatalf("expected inline transport, body: %s", rawBody)
	}
	if strings.Contains(rawBody, "file_data") {
		t.Fatalf("unexpected file transport for small payload")
	}
}

func TestGenerateFromMediaUploadsLargePayload(t *testing.T) {
	media := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(media, []byte(strings.Repeat("x", 256)), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}

	var mu sync.Mutex
	var sawStart, sawTransfer bool
	var generateBody string
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sawStart = true
		mu.Unlock()
		if r.Header.Get("X-Goog-Upload-Command") != "start" {
			t.Errorf("unexpected upload command %q", r.Header.Get("X-Goog-Upload-Command"))
		}
		w.Header().Set("X-Goog-Upload-URL", server.URL+"/upload-session")
	})
	mux.HandleFunc("/upload-session", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sawTransfer = true
		mu.Unlock()
		fmt.Fprint(w, `{"file":{"name":"files/abc","uri":"https://files.example/abc","state":"PROCESSING"}}`)
	})
	mux.HandleFunc("/v1beta/files/abc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"files/abc","uri":"https://files.example/abc","state":"ACTIVE"}`)
	})
	mux.HandleFunc("/v1beta/models/gemini-test:generateContent", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		generateBody = string(body)
		fmt.Fprint(w, candidateResponse("ok"))
	})

	client := newTestClient(t, server.URL)
	if _, err := client.GenerateFromMedia(context.Background(), "system", "analyze", media); err != nil {
		t.Fatalf("GenerateFromMedia: %v", err)
	}
	if !sawStart || !sawTransfer {
		t.Fatalf("upload endpoints not exercised: start=%v transfer=%v", sawStart, sawTransfer)
	}
	if !strings.Contains(generateBody, "https://files.example/abc") {
		t.Fatalf("file uri missing from generate request: %s", generateBody)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, candidateResponse("recovered"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.GenerateFromText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("GenerateFromText: %v", err)
	}
	if text != "recovered" || calls != 2 {
		t.Fatalf("text=%q calls=%d", text, calls)
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"code":400,"message":"bad request"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.GenerateFromText(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":403,"message":"API key invalid"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GenerateFromText(context.Background(), "system", "user")
	if err == nil || !strings.Contains(err.Error(), "API key invalid") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestMimeTypeForMedia(t *testing.T) {
	cases := map[string]string{
		"clip.mp4":  "video/mp4",
		"clip.MOV":  "video/quicktime",
		"clip.webm": "video/webm",
		"clip.mkv":  "video/x-matroska",
		"clip.bin":  "video/mp4",
	}
	for path, want := range cases {
		if got := gemini.MimeTypeForMedia(path); got != want {
			t.Errorf("MimeTypeForMedia(%q) = %q, want %q", path, got, want)
		}
	}
}
