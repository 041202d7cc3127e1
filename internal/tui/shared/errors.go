package shared

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/joe/repo-saves/internal/state"
	"github.com/joe/repo-saves/pkg/errors"
)

// RenderOperationError renders the last failed operation with actionable
// suggestions. maxWidth > 0 truncates the message line. Returns "" for nil.
func RenderOperationError(opErr *state.OperationError, maxWidth int) string {
	if opErr == nil {
		return ""
	}

	var builder strings.Builder

	enriched := errors.NewEnricher().Enrich(fmt.Errorf("%s", opErr.Message), opErr.Path) //nolint:err113 // Rebuilt from the recorded message

	heading := opErr.Operation
	if opErr.Name != "" {
		heading += " " + opErr.Name
	}

	fmt.Fprintf(&builder, "%s %s %s\n",
		ErrorSymbol(),
		RenderError(heading+" failed"),
		RenderDim(humanize.Time(opErr.At)))

	msg := opErr.Message
	if maxWidth > 3 && len(msg) > maxWidth {
		msg = msg[:maxWidth-3] + "..."
	}

	fmt.Fprintf(&builder, "  %s", msg)

	suggestions := errors.FormatSuggestions(enriched)
	if suggestions != "" {
		builder.WriteString("\n")
		builder.WriteString("  " + strings.ReplaceAll(suggestions, "\n", "\n  "))
	}

	return builder.String()
}
