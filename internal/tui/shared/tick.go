package shared

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickInterval is how often the UI re-reads the application state.
const TickInterval = 100 * time.Millisecond

// TickMsg is a message sent on each tick interval
type TickMsg time.Time

// TickCmd returns a command that sends the next tick message
func TickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
