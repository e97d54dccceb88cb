package errors

import (
	"strings"
	"unicode"
)

// ValidatePath validates a local source file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidMimeTypes is the set of source formats understood by the converter.
var ValidMimeTypes = map[string]bool{
	"csv":  true,
	"tsv":  true,
	"json": true,
}

// ValidateMimeType checks that a source format is one of csv, tsv or json.
// The empty string is accepted and means csv.
func ValidateMimeType(mimeType string) error {
	if mimeType == "" || ValidMimeTypes[mimeType] {
		return nil
	}
	return New(ErrCodeInvalidMimeType, "invalid mime type: %q (must be one of: csv, tsv, json)", mimeType)
}
