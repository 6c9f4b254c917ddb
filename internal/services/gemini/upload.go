package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const uploadStatePollLimit = 60

type fileMetadata struct {
	Name  string `json:"name"`
	URI   string `json:"uri"`
	State string `json:"state"`
}

type fileResponse struct {
	File fileMetadata `json:"file"`
	// GET /v1beta/{name} returns the metadata at the top level.
	fileMetadata
	Error *apiError `json:"error"`
}

func (r *fileResponse) metadata() fileMetadata {
	if r.File.Name != "" || r.File.URI != "" {
		return r.File
	}
	return r.fileMetadata
}

// uploadFile pushes a media file through the resumable Files API and waits
// for it to become ACTIVE. It returns the file URI to reference from a
// generateContent request.
func (c *Client) uploadFile(ctx context.Context, path, mimeType string, size int64) (string, error) {
	uploadURL, err := c.startUpload(ctx, path, mimeType, size)
	if err != nil {
		return "", err
	}

	meta, err := c.transferBytes(ctx, uploadURL, path, size)
	if err != nil {
		return "", err
	}

	return c.awaitActive(ctx, meta)
}

func (c *Client) startUpload(ctx context.Context, path, mimeType string, size int64) (string, error) {
	endpoint := c.cfg.BaseURL + "/upload/v1beta/files"
	metadata, err := json.Marshal(map[string]any{
		"file": map[string]string{"display_name": filepath.Base(path)},
	})
	if err != nil {
		return "", fmt.Errorf("gemini upload: encode metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(metadata))
	if err != nil {
		return "", fmt.Errorf("gemini upload: new request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(size, 10))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini upload: start: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	uploadURL := strings.TrimSpace(resp.Header.Get("X-Goog-Upload-URL"))
	if uploadURL == "" {
		return "", fmt.Errorf("gemini upload: start response missing upload url")
	}
	return uploadURL, nil
}

func (c *Client) transferBytes(ctx context.Context, uploadURL, path string, size int64) (fileMetadata, error) {
	var empty fileMetadata

	file, err := os.Open(path)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: open %s: %w", path, err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, file)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: new request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.Header.Set("X-Goog-Upload-Offset", "0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: transfer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded fileResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return empty, fmt.Errorf("gemini upload: decode response: %w", err)
	}
	if decoded.Error != nil {
		return empty, fmt.Errorf("gemini upload: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}

	meta := decoded.metadata()
	if meta.URI == "" {
		return empty, fmt.Errorf("gemini upload: response missing file uri")
	}
	return meta, nil
}

// awaitActive polls file state until processing finishes. Large videos can
// sit in PROCESSING for a while after the bytes land.
func (c *Client) awaitActive(ctx context.Context, meta fileMetadata) (string, error) {
	for polls := 0; ; polls++ {
		switch strings.ToUpper(meta.State) {
		case "", "ACTIVE":
			return meta.URI, nil
		case "FAILED":
			return "", fmt.Errorf("gemini upload: file %s processing failed", meta.Name)
		}

		if polls >= uploadStatePollLimit {
			return "", fmt.Errorf("gemini upload: file %s still %s after %d polls", meta.Name, meta.State, polls)
		}
		if err := c.sleepCtx(ctx, c.pollInterval); err != nil {
			return "", err
		}

		refreshed, err := c.getFile(ctx, meta.Name)
		if err != nil {
			return "", err
		}
		meta = refreshed
	}
}

func (c *Client) getFile(ctx context.Context, name string) (fileMetadata, error) {
	var empty fileMetadata
	endpoint := c.cfg.BaseURL + "/v1beta/" + strings.TrimPrefix(name, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: new request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: poll state: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: read state: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded fileResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return empty, fmt.Errorf("gemini upload: decode state: %w", err)
	}
	return decoded.metadata(), nil
}

func (c *Client) sleepCtx(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
