package errors

import (
	"strings"
	"unicode"
)

// ValidateAnimationName validates an animation name for safety and correctness.
// Animation names double as input subdirectory names and descriptor keys, so
// anything that could escape the input directory is rejected.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateAnimationName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "animation name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidConfig, "animation name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "animation name %q contains control characters", name)
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidConfig, "animation name %q contains invalid sequence %q", name, pattern)
		}
	}

	return nil
}

// ValidateOutputPath validates an output file path for emission.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	return nil
}
