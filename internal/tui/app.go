package tui

import tea "github.com/charmbracelet/bubbletea"

// NewProgram builds the bubbletea program around model. Focus reporting is
// always enabled so that returning to the terminal rescans the directories.
func NewProgram(model *AppModel, opts ...tea.ProgramOption) *tea.Program {
	opts = append(opts, tea.WithReportFocus())

	return tea.NewProgram(model, opts...)
}
