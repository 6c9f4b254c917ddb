package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGemini()
	c.normalizeFetch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReportsDir) == "" {
		c.Paths.ReportsDir = defaultReportsDir
	}
	if c.Paths.ReportsDir, err = expandPath(c.Paths.ReportsDir); err != nil {
		return fmt.Errorf("paths.reports_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SequencesDir) == "" {
		c.Paths.SequencesDir = defaultSequencesDir
	}
	if c.Paths.SequencesDir, err = expandPath(c.Paths.SequencesDir); err != nil {
		return fmt.Errorf("paths.sequences_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeoutSeconds
	}
	if c.Gemini.InlineLimitMiB <= 0 {
		c.Gemini.InlineLimitMiB = defaultGeminiInlineLimitMiB
	}
}

func (c *Config) normalizeFetch() {
	c.Fetch.Binary = strings.TrimSpace(c.Fetch.Binary)
	if c.Fetch.Binary == "" {
		c.Fetch.Binary = defaultFetchBinary
	}
	c.Fetch.FFmpegBinary = strings.TrimSpace(c.Fetch.FFmpegBinary)
	if c.Fetch.FFmpegBinary == "" {
		c.Fetch.FFmpegBinary = defaultFFmpegBinary
	}
	c.Fetch.CookiesFromBrowser = strings.TrimSpace(c.Fetch.CookiesFromBrowser)
	if c.Fetch.CookiesFromBrowser == "" {
		if value, ok := os.LookupEnv("YTDLP_COOKIES_FROM_BROWSER"); ok {
			c.Fetch.CookiesFromBrowser = strings.TrimSpace(value)
		}
	}
	c.Fetch.CookiesProfile = strings.TrimSpace(c.Fetch.CookiesProfile)
	if c.Fetch.CookiesProfile == "" {
		if value, ok := os.LookupEnv("YTDLP_COOKIES_PROFILE"); ok {
			c.Fetch.CookiesProfile = strings.TrimSpace(value)
		}
	}
	c.Fetch.CookiesFile = strings.TrimSpace(c.Fetch.CookiesFile)
	if c.Fetch.CookiesFile == "" {
		if value, ok := os.LookupEnv("YTDLP_COOKIES_FILE"); ok {
			c.Fetch.CookiesFile = strings.TrimSpace(value)
		}
	}
	if c.Fetch.MaxHeight <= 0 {
		c.Fetch.MaxHeight = defaultMaxHeight
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
