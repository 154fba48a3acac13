package errors

import (
	"strings"
	"unicode"
)

// ValidateEngine checks a layout engine name before it is used to locate an
// executable. Engine names are opaque, but they are joined onto a directory
// path, so anything that could escape that directory is rejected:
//   - No empty names
//   - No path separators or traversal sequences
//   - No control characters
func ValidateEngine(name string) error {
	if name == "" {
		return New(ErrCodeInvalidEngine, "engine name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return New(ErrCodeInvalidEngine, "engine name cannot contain path components: %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidEngine, "engine name contains invalid characters: %q", name)
		}
	}
	return nil
}

// ValidateFormat checks an output format string. Formats are passed through
// to the renderer and may select a renderer and library with colons
// (e.g. "png:cairo:gd"), so only the character set is checked.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	for _, r := range format {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ':' || r == '_' || r == '-' || r == '.':
		default:
			return New(ErrCodeInvalidFormat, "format contains invalid character %q: %s", r, format)
		}
	}
	return nil
}

// ValidateOutputPath checks a render target path.
// Absolute paths are allowed; empty paths and control characters are not.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 4096
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
