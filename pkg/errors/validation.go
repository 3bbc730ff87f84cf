package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxCanvasSide bounds canvas width and height. Rasterizing anything larger
// allocates hundreds of megabytes.
const MaxCanvasSide = 16384

// ValidateCanvasSize validates a canvas width and height in pixels.
func ValidateCanvasSize(width, height float64) error {
	for _, v := range []struct {
		name string
		val  float64
	}{{"width", width}, {"height", height}} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return New(ErrCodeInvalidInput, "canvas %s must be finite", v.name)
		}
		if v.val <= 0 {
			return New(ErrCodeInvalidInput, "canvas %s must be positive, got %v", v.name, v.val)
		}
		if v.val > MaxCanvasSide {
			return New(ErrCodeInvalidInput, "canvas %s too large (max %d)", v.name, MaxCanvasSide)
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

// ValidateBackground validates a background image reference. Empty means no
// background. Anything else must be an http(s) URL, a data URI or a plain
// relative or absolute file path without control characters or quotes, since
// the value ends up inside an SVG style attribute.
func ValidateBackground(ref string) error {
	if ref == "" {
		return nil
	}
	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "background contains control characters")
		}
	}
	if strings.ContainsAny(ref, `"'<>`) {
		return New(ErrCodeInvalidInput, "background contains quote or angle bracket characters")
	}
	if strings.Contains(ref, "://") {
		return ValidateURL(ref)
	}
	return nil
}

// ValidatePath validates an output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
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
