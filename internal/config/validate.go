package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var localeRegex = regexp.MustCompile(`^[a-z]{2,3}(_[A-Z]{2})?$`)

var knownFilesystems = map[string]bool{
	"btrfs": true,
	"ext4":  true,
	"xfs":   true,
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config for invalid values and returns all errors found.
// Dangerous values are clamped to safe defaults; other validation errors are
// logged as warnings but do not prevent startup.
func (c *Config) Validate() []error {
	var errs []error

	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("server_url %q is not a valid URL: %w", c.ServerURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("server_url scheme must be http or https, got %q", u.Scheme))
		}
	}

	if c.AuthToken != "" {
		for _, r := range c.AuthToken {
			if unicode.IsControl(r) {
				errs = append(errs, fmt.Errorf("auth_token contains control characters"))
				break
			}
		}
	}

	if c.DefaultLanguage != "" && !localeRegex.MatchString(c.DefaultLanguage) {
		errs = append(errs, fmt.Errorf("default_language %q is not a locale code like en_US, falling back", c.DefaultLanguage))
		c.DefaultLanguage = Default().DefaultLanguage
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("unknown log_level %q, falling back to info", c.LogLevel))
		c.LogLevel = "info"
	}

	if fs := strings.ToLower(c.Storage.Filesystem); fs != "" && !knownFilesystems[fs] {
		errs = append(errs, fmt.Errorf("unsupported storage.filesystem %q, falling back to btrfs", c.Storage.Filesystem))
		c.Storage.Filesystem = "btrfs"
	}

	if c.Storage.SwapSizeMB > 1024*1024 {
		errs = append(errs, fmt.Errorf("storage.swap_size_mb %d is unreasonably large, clamping", c.Storage.SwapSizeMB))
		c.Storage.SwapSizeMB = 1024 * 1024
	}

	return errs
}

// LogWarnings logs each validation error as a warning.
func LogWarnings(logger *slog.Logger, errs []error) {
	for _, err := range errs {
		logger.Warn("config validation", "error", err.Error())
	}
}
