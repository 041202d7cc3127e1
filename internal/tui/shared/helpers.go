package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/joe/repo-saves/internal/savebundle"
)

// ============================================================================
// Formatting Functions
// ============================================================================

// FormatDuration formats duration into human-readable format (e.g., "2m 30s")
func FormatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)
	hours := duration / time.Hour
	duration %= time.Hour
	minutes := duration / time.Minute
	duration %= time.Minute
	seconds := duration / time.Second

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// FormatPlayers joins player names, or returns "no players".
func FormatPlayers(players []string) string {
	if len(players) == 0 {
		return "no players"
	}

	return strings.Join(players, ", ")
}

// FormatLevel renders the player-facing level of a bundle.
func FormatLevel(bundle savebundle.SaveBundle) string {
	return fmt.Sprintf("Lvl %d", bundle.DisplayLevel())
}

// TruncateLeft shortens s to width runes, keeping the tail, which is the
// informative end of a path.
func TruncateLeft(s string, width int) string {
	const ellipsis = "..."

	runes := []rune(s)
	if width <= len(ellipsis) || len(runes) <= width {
		return s
	}

	return ellipsis + string(runes[len(runes)-(width-len(ellipsis)):])
}
