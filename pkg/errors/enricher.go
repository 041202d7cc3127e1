package errors

import (
	"errors"
	"regexp"
	"strings"
)

// Enricher enriches standard errors with actionable suggestions.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// NewEnricher creates a new Enricher with default pattern matcher and suggestion generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

//nolint:gochecknoglobals // Compiled once and shared by all enrichers
var pathExtractionPatterns = []*regexp.Regexp{
	// "open /home/joe/saves/SAVE_A/SAVE_A.es3: permission denied"
	regexp.MustCompile(`\b\w+\s+([./~][^\s:]+):`),
	// Windows paths with backslashes
	regexp.MustCompile(`\b\w+\s+([A-Za-z]:\\[^\s:]+):`),
	// Windows paths with forward slashes
	regexp.MustCompile(`\b\w+\s+([A-Za-z]:/[^\s:]+):`),
}

// enricher is the concrete implementation of Enricher.
type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich takes an error and returns an ActionableError for it.
// If the error is already an ActionableError, it is returned unchanged.
// If affectedPath is empty, a path is extracted from the message when possible.
func (e *enricher) Enrich(err error, affectedPath string) error {
	if err == nil {
		return nil
	}

	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return actionableErr
	}

	errMsg := err.Error()

	if affectedPath == "" {
		affectedPath = extractPath(errMsg)
	}

	category := e.matcher.Match(errMsg)

	return NewActionableError(
		errMsg,
		category,
		e.generator.Generate(category, affectedPath),
		affectedPath,
	)
}

// extractPath returns the first path found in an "op /path: reason" message,
// or "" if there is none.
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			path := strings.TrimSpace(matches[1])
			if path != "" {
				return path
			}
		}
	}

	return ""
}
