package common

import (
	"fmt"
	"slices"
	"strings"
)

// NormalizeOutputFormat canonicalizes a format flag value for comparison
func NormalizeOutputFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// ValidateOutputFormat validates format against configured supported
// formats. Comparison is case-insensitive; an empty supported list allows
// any format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}

	normalized := NormalizeOutputFormat(format)
	if slices.ContainsFunc(supportedFormats, func(s string) bool {
		return NormalizeOutputFormat(s) == normalized
	}) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
