package middleware

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Input validation and sanitization utilities

var (
	runIDPattern    = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
	identPattern    = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)
	dangerousInName = []string{"$(", "`", "&", "|", ";", "\n", "\r", "\x00"}
)

// ValidateFileName checks an uploaded file name: non-empty, no directory
// part, no traversal, no shell metacharacters.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("file name is too long")
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("file name must not contain a path")
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("path traversal detected")
	}
	for _, d := range dangerousInName {
		if strings.Contains(name, d) {
			return fmt.Errorf("invalid characters in file name")
		}
	}
	return nil
}

// ValidateBaseURL validates the backend base URL. Internal hosts are
// allowed: the backend usually runs next to the dashboard.
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	if u.User != nil {
		return fmt.Errorf("credentials in URL are not allowed")
	}
	return nil
}

// ValidateIdentifier validates backend ids carried in query strings
// (pssi_id, norm_id, norm_name)
func ValidateIdentifier(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if !identPattern.MatchString(v) || strings.Contains(v, "..") {
		return fmt.Errorf("invalid %s format", field)
	}
	return nil
}

// ValidateRunID validates run id format (uuid)
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	if !runIDPattern.MatchString(id) {
		return fmt.Errorf("invalid run ID format")
	}
	return nil
}

// ValidateAlertID parses a positive alert id
func ValidateAlertID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid alert ID: %q", raw)
	}
	return id, nil
}

// ValidatePolicySize rejects policy text above max bytes (0 = no limit)
func ValidatePolicySize(text string, max int) error {
	if max > 0 && len(text) > max {
		return fmt.Errorf("policy text exceeds %d bytes", max)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
