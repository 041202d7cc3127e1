package shared

import "os"

// Status symbols, with ASCII fallbacks for terminals that cannot draw them.
const (
	successSymbol  = "✓"
	errorSymbol    = "✗"
	pendingSymbol  = "○"
	selectedSymbol = "▶"

	asciiSuccessSymbol  = "+"
	asciiErrorSymbol    = "x"
	asciiPendingSymbol  = "-"
	asciiSelectedSymbol = ">"
)

// ASCIIEnv forces ASCII symbols when set to any non-empty value.
const ASCIIEnv = "REPO_SAVES_ASCII"

//nolint:gochecknoglobals // Read once at startup
var unicodeDisabled = os.Getenv(ASCIIEnv) != "" || os.Getenv("TERM") == "linux"

// SetUnicode switches between Unicode and ASCII symbols.
func SetUnicode(enabled bool) {
	unicodeDisabled = !enabled
}

// SuccessSymbol marks a completed action.
func SuccessSymbol() string {
	return pick(successSymbol, asciiSuccessSymbol)
}

// ErrorSymbol marks a failure.
func ErrorSymbol() string {
	return pick(errorSymbol, asciiErrorSymbol)
}

// PendingSymbol marks an action waiting for an answer.
func PendingSymbol() string {
	return pick(pendingSymbol, asciiPendingSymbol)
}

// SelectedSymbol marks the row under the cursor.
func SelectedSymbol() string {
	return pick(selectedSymbol, asciiSelectedSymbol)
}

func pick(unicode, ascii string) string {
	if unicodeDisabled {
		return ascii
	}

	return unicode
}
