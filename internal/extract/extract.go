// Package extract converts uploaded job-posting and resume files into plain
// text for analysis. The shipped extractor handles text and markdown; binary
// formats plug in behind the same interface.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"resumeforge/internal/errors"
	"resumeforge/internal/utils"
)

// Extractor converts a raw file into analyzable text
type Extractor interface {
	ExtractText(data []byte, filename string) (string, error)
}

// TextExtractor reads UTF-8 text and markdown files. Markdown keeps its
// markup; the analyzer tolerates it.
type TextExtractor struct{}

var _ Extractor = (*TextExtractor)(nil)

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) ExtractText(data []byte, filename string) (string, error) {
	if !utils.IsTextFile(filename) {
		format := utils.GetFileExtension(filename)
		if format == "" {
			format = filename
		}
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported file format: %s (text and markdown only)", format), nil)
	}
	if len(data) == 0 {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File is empty: %s", filename), nil)
	}
	if !utf8.Valid(data) {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File is not valid UTF-8 text: %s", filename), nil)
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	if strings.TrimSpace(text) == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File has no text content: %s", filename), nil)
	}
	return text, nil
}
