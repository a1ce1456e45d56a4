package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateURL validates a remote resource URL for safety.
// It accepts http, https and data URLs; everything else (file, ftp,
// relative paths) is rejected so a scene cannot read from the host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if strings.HasPrefix(rawURL, "data:") {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return New(ErrCodeInvalidInput, "URL is malformed")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http, https or data scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must have a host")
	}

	return nil
}

// ValidateArtifactID validates an artifact identifier taken from a request path.
// It prevents path traversal and injection when the ID reaches a storage backend.
//
// Validation rules:
//   - ID cannot be empty
//   - Maximum length of 128 characters
//   - Only letters, digits, '-', '_' and a single '.' extension separator
//   - No leading '.', so hidden and temporary files stay unreachable
func ValidateArtifactID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "artifact id cannot be empty")
	}

	const maxIDLength = 128
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "artifact id too long (max %d characters)", maxIDLength)
	}

	if strings.HasPrefix(id, ".") || strings.Contains(id, "..") || strings.Count(id, ".") > 1 {
		return New(ErrCodeInvalidInput, "artifact id contains invalid characters")
	}

	for _, r := range id {
		if r > unicode.MaxASCII {
			return New(ErrCodeInvalidInput, "artifact id contains invalid characters")
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			continue
		}
		return New(ErrCodeInvalidInput, "artifact id contains invalid characters")
	}

	return nil
}
