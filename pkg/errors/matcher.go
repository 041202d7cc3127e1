package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// categoryPatterns pairs a category with the message fragments that select it.
type categoryPatterns struct {
	category ErrorCategory
	patterns []string
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
// Categories are tried in order; the first with a matching fragment wins, so
// the specific save-file and remote failures come before the generic OS ones
// that often appear inside them.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		ordered: []categoryPatterns{
			{CategorySaveFile, []string{
				"failed to decrypt save file",
				"does not match the expected schema",
				"save file missing",
				"save file is not a regular file",
			}},
			{CategoryName, []string{
				"invalid save bundle name",
			}},
			{CategoryConflict, []string{
				"already exists",
				"overlap",
			}},
			{CategoryConnection, []string{
				"ssh connection failed",
				"sftp session creation failed",
				"no ssh authentication methods",
				"unable to authenticate",
				"connection refused",
				"no route to host",
				"i/o timeout",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
			}},
			{CategoryDiskSpace, []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file does not exist",
				"not found",
			}},
			{CategoryDelete, []string{
				"directory not empty",
				"cannot remove",
			}},
			{CategoryCopy, []string{
				"verification failed",
				"save bundle i/o failure",
				"short write",
				"input/output error",
				"i/o error",
			}},
		},
	}
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	ordered []categoryPatterns
}

// Match returns the error category based on pattern matching.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, entry := range m.ordered {
		for _, pattern := range entry.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return entry.category
			}
		}
	}

	return CategoryUnknown
}
