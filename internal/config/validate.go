package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the pipeline cannot run with.
// The Gemini API key is intentionally not required here so that commands
// that never reach the API (config, history, deps) still work without one.
func (c *Config) Validate() error {
	var problems []string

	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		problems = append(problems, fmt.Sprintf("gemini.temperature must be between 0 and 2 (got %g)", c.Gemini.Temperature))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json (got %q)", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level))
	}
	if c.Fetch.CookiesProfile != "" && c.Fetch.CookiesFromBrowser == "" {
		problems = append(problems, "fetch.cookies_profile requires fetch.cookies_from_browser")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
