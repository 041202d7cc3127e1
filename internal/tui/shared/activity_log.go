package shared

import (
	"strings"

	"github.com/joe/repo-saves/internal/state"
)

// ActivityTimeFormat is the timestamp layout of activity lines.
const ActivityTimeFormat = "15:04:05"

// RenderActivityLog renders the activity log with an optional title.
// Entries are displayed oldest first. If maxEntries > 0, only the most recent
// maxEntries are shown.
func RenderActivityLog(title string, entries []state.ActivityEntry, maxEntries int) string {
	var builder strings.Builder

	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle != "" {
		builder.WriteString(RenderLabel(trimmedTitle))
		builder.WriteString("\n")

		if len(entries) > 0 {
			builder.WriteString("\n")
		}
	}

	if len(entries) == 0 {
		return builder.String()
	}

	startIdx := 0
	if maxEntries > 0 && maxEntries < len(entries) {
		startIdx = len(entries) - maxEntries
	}

	for i := startIdx; i < len(entries); i++ {
		builder.WriteString("  ")
		builder.WriteString(RenderDim(entries[i].At.Format(ActivityTimeFormat)))
		builder.WriteString(" ")
		builder.WriteString(entries[i].Message)

		if i < len(entries)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}
