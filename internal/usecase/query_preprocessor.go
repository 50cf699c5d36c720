package usecase

import (
	"log/slog"
	"regexp"
	"strings"
)

// maxQueryLength keeps search queries within what the USDA API accepts
const maxQueryLength = 100

// Compiled regex patterns for query preprocessing
var (
	// Control characters pasted along with a food name
	controlCharPattern = regexp.MustCompile(`[\x00-\x1f\x7f]`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// QueryPreprocessor cleans user input before it is sent to USDA search
type QueryPreprocessor struct {
	logger *slog.Logger
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger *slog.Logger) *QueryPreprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryPreprocessor{logger: logger}
}

// PreprocessQuery strips control characters, normalizes whitespace and caps
// the query length at a word boundary. A blank query comes back empty.
func (p *QueryPreprocessor) PreprocessQuery(query string) string {
	if query == "" {
		return ""
	}

	cleaned := controlCharPattern.ReplaceAllString(query, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if runes := []rune(cleaned); len(runes) > maxQueryLength {
		cleaned = string(runes[:maxQueryLength])
		// Try to cut at word boundary
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	if cleaned != query {
		p.logger.Debug("query preprocessed", "input", query, "output", cleaned)
	}

	return cleaned
}
