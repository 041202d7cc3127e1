package errors_test

import (
	"testing"

	"github.com/joe/repo-saves/pkg/errors"
)

func TestPatternMatcher_Match(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		expected errors.ErrorCategory
	}{
		{"decrypt failure", "restore SAVE_A failed: failed to decrypt save file: bad padding", errors.CategorySaveFile},
		{"schema mismatch", "save file does not match the expected schema: missing runStats", errors.CategorySaveFile},
		{"missing save file", "save file missing: /saves/SAVE_A/SAVE_A.es3", errors.CategorySaveFile},
		{"invalid name", `invalid save bundle name: "a/b"`, errors.CategoryName},
		{"already exists", "/saves/SAVE_A already exists", errors.CategoryConflict},
		{"overlapping roots", "save bundle I/O failure: /saves/A and /saves/A/A overlap", errors.CategoryConflict},
		{"ssh dial", "SSH connection failed: dial tcp 10.0.0.2:22: connect: connection refused", errors.CategoryConnection},
		{"ssh auth", "ssh: handshake failed: ssh: unable to authenticate", errors.CategoryConnection},
		{"permission", "save bundle I/O failure: open /backups/A/A.es3: permission denied", errors.CategoryPermission},
		{"uppercase permission", "PERMISSION DENIED", errors.CategoryPermission},
		{"disk full", "write /backups/A/A.es3: No Space Left On Device", errors.CategoryDiskSpace},
		{"not found", "bundle /backups/NOPE not found", errors.CategoryPath},
		{"no such file", "stat /saves: no such file or directory", errors.CategoryPath},
		{"directory not empty", "remove /backups/A: directory not empty", errors.CategoryDelete},
		{"verification", "verification failed: /b/A/A.es3 differs from /s/A/A.es3", errors.CategoryCopy},
		{"bare io failure", "save bundle I/O failure: unexpected EOF", errors.CategoryCopy},
		{"unknown", "something odd happened", errors.CategoryUnknown},
		{"empty", "", errors.CategoryUnknown},
	}

	matcher := errors.NewPatternMatcher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			category := matcher.Match(testCase.errorMsg)
			if category != testCase.expected {
				t.Errorf("expected category %q, got %q for error: %q",
					testCase.expected, category, testCase.errorMsg)
			}
		})
	}
}

func TestPatternMatcher_IsDeterministic(t *testing.T) {
	t.Parallel()

	matcher := errors.NewPatternMatcher()
	msg := "failed to decrypt save file: open /saves/A/A.es3: permission denied"

	for range 50 {
		if got := matcher.Match(msg); got != errors.CategorySaveFile {
			t.Fatalf("expected %q, got %q", errors.CategorySaveFile, got)
		}
	}
}
