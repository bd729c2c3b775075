package utils

import (
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextProcessor prepares email bodies before they are rendered into a
// prompt: clamps size and guarantees valid UTF-8.
type TextProcessor struct {
	maxBodySize int
	logger      *zap.Logger
}

// NewTextProcessor creates a new TextProcessor. maxBodySize is in bytes; a
// value of zero or less disables truncation.
func NewTextProcessor(maxBodySize int, logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// TruncateText safely truncates text to the configured maximum size and
// ensures the result is valid UTF-8.
func (tp *TextProcessor) TruncateText(text string) string {
	if tp.maxBodySize <= 0 || len(text) <= tp.maxBodySize {
		return text
	}

	truncated := text[:tp.maxBodySize]

	// Back off until the cut ends on a valid UTF-8 boundary
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", tp.maxBodySize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters.
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				// Skip invalid UTF-8 sequences
				continue
			}
		}
		result = append(result, r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(string(result))))

	return string(result)
}

// ProcessText truncates and sanitizes text in one operation.
func (tp *TextProcessor) ProcessText(text string) string {
	return tp.SanitizeUTF8(tp.TruncateText(text))
}
