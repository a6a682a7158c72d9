package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds document and variant names, which end up in file names.
const maxNameLength = 200

// ValidateName validates a document or variant name for use in output paths.
// Names become part of "<doc>/<doc>_<variant>.png", so anything that could
// escape the output folder is rejected.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 200 characters
//   - No control characters or null bytes
//   - No path separators or traversal sequences
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidConfig, "name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "name %q contains invalid control characters", name)
		}
	}

	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidConfig, "name %q cannot contain path separators", name)
	}

	if name == "." || strings.Contains(name, "..") {
		return New(ErrCodeInvalidConfig, "name %q cannot contain path traversal sequences", name)
	}

	return nil
}

// ValidatePath validates a path relative to the output root.
// It prevents path traversal out of the output folder.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
