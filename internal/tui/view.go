package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joe/repo-saves/internal/savebundle"
	"github.com/joe/repo-saves/internal/tui/shared"
)

const (
	defaultWidth = 80
	nameColumn   = 14
	paneOverhead = 4 // Border (2) and padding (2)
	errorIndent  = 4
	notSetLabel  = "(not set)"
	unknownLevel = "?"
	appTitle     = "R.E.P.O. Save Manager"
	editorTitle  = "Change directory"
)

// View implements tea.Model
func (m *AppModel) View() string {
	if m.quitting {
		return ""
	}

	var builder strings.Builder

	builder.WriteString(shared.RenderTitle(appTitle))
	builder.WriteString("\n")
	builder.WriteString(m.renderDirectories())
	builder.WriteString("\n\n")

	kind, name := m.pendingConfirmation()

	switch {
	case m.editing != editNone:
		builder.WriteString(shared.RenderWidgetBox(editorTitle, m.dirInput.View(), m.viewWidth()))
	case kind == confirmRestore:
		builder.WriteString(m.renderRestoreConfirmation(name))
	case kind == confirmDelete:
		builder.WriteString(m.renderDeleteConfirmation(name))
	default:
		builder.WriteString(m.renderLists())

		if details := m.renderDetails(); details != "" {
			builder.WriteString("\n")
			builder.WriteString(details)
		}
	}

	if errText := shared.RenderOperationError(m.snapshot.LastError, m.viewWidth()-errorIndent); errText != "" {
		builder.WriteString("\n\n")
		builder.WriteString(errText)
	}

	if activity := shared.RenderActivityLog("Activity", m.snapshot.Activity, shared.ActivityLogEntries); activity != "" {
		builder.WriteString("\n\n")
		builder.WriteString(activity)
	}

	if m.hint != "" {
		builder.WriteString("\n\n")
		builder.WriteString(shared.RenderWarning(m.hint))
	}

	builder.WriteString("\n\n")

	if kind != confirmNone && m.editing == editNone {
		builder.WriteString(m.help.View(m.confirmKeys))
	} else if m.editing == editNone {
		builder.WriteString(m.help.View(m.keys))
	}

	return builder.String()
}

func (m *AppModel) viewWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}

	return m.width
}

func (m *AppModel) renderDirectories() string {
	labelWidth := lipgloss.NewStyle().Width(len("Backups: "))
	maxPath := m.viewWidth() - len("Backups: ")

	return labelWidth.Render(shared.RenderLabel("Saves:")) + displayDir(m.snapshot.SaveDirectory, maxPath) + "\n" +
		labelWidth.Render(shared.RenderLabel("Backups:")) + displayDir(m.snapshot.BackupDirectory, maxPath)
}

func displayDir(dir string, width int) string {
	if dir == "" {
		return shared.RenderDim(notSetLabel)
	}

	return shared.TruncateLeft(dir, width)
}

func (m *AppModel) renderLists() string {
	width := m.viewWidth()
	half := width / 2 //nolint:mnd // Two equal columns

	left := m.renderPane(paneGame, "Game saves", m.snapshot.SaveDirectory, half)
	right := m.renderPane(paneBackups, "Backups", m.snapshot.BackupDirectory, width-half)

	return shared.RenderTwoColumnLayout(left, right, width, 0)
}

func (m *AppModel) renderPane(p pane, title, dir string, width int) string {
	var builder strings.Builder

	builder.WriteString(shared.RenderLabel(fmt.Sprintf("%s (%d)", title, len(m.lists[p]))))

	switch {
	case dir == "":
		builder.WriteString("\n" + shared.RenderDim("directory not set"))
	case len(m.lists[p]) == 0:
		builder.WriteString("\n" + shared.RenderDim("no saves found"))
	}

	for i, bundle := range m.lists[p] {
		builder.WriteString("\n")
		builder.WriteString(m.renderRow(p, i, bundle))
	}

	return shared.PaneStyle(m.pane == p).Width(max(width-paneOverhead, 1)).Render(builder.String())
}

func (m *AppModel) renderRow(p pane, index int, bundle savebundle.SaveBundle) string {
	marker := "  "
	style := shared.ItemStyle()

	if index == m.cursor[p] && m.pane == p {
		marker = shared.SelectedSymbol() + " "
		style = shared.SelectedItemStyle()
	}

	row := fmt.Sprintf("%s%-*s %s", marker, nameColumn, bundle.Name, shared.FormatLevel(bundle))

	if p == paneBackups && (bundle.Name == m.snapshot.ConfirmRestoreBackupName ||
		bundle.Name == m.snapshot.ConfirmBackupDeletionName) {
		row += " " + shared.PendingSymbol()
	}

	return style.Render(row)
}

func (m *AppModel) renderDetails() string {
	bundle, ok := m.selectedIn(m.pane)
	if !ok {
		return ""
	}

	parts := []string{
		shared.RenderLabel(bundle.Name),
		shared.FormatPlayers(bundle.Players),
		"played " + shared.FormatDuration(bundle.TimePlayed),
	}

	if bundle.TeamName != "" {
		parts = append(parts, "team "+bundle.TeamName)
	}

	if bundle.SavedAt != "" {
		parts = append(parts, "saved "+bundle.SavedAt)
	}

	if bundle.RotatedFiles > 0 {
		parts = append(parts, fmt.Sprintf("%d rotated copies", bundle.RotatedFiles))
	}

	return strings.Join(parts, shared.RenderDim(" • "))
}

func (m *AppModel) levelIn(p pane, name string) string {
	bundle, ok := savebundle.Find(m.lists[p], name)
	if !ok {
		return unknownLevel
	}

	return fmt.Sprintf("%d", bundle.DisplayLevel())
}

func (m *AppModel) renderRestoreConfirmation(name string) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%s %s\n\n", shared.PendingSymbol(), shared.RenderWarning("Restore backup "+name+"?"))
	fmt.Fprintf(&builder, "The game save %s will be replaced.\n", name)
	fmt.Fprintf(&builder, "Level: %s -> %s", m.levelIn(paneGame, name), m.levelIn(paneBackups, name))

	if bundle, ok := savebundle.Find(m.lists[paneBackups], name); ok {
		fmt.Fprintf(&builder, "\nPlayers: %s", shared.FormatPlayers(bundle.Players))
	}

	return shared.ModalStyle().Render(builder.String())
}

func (m *AppModel) renderDeleteConfirmation(name string) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%s %s\n\n", shared.PendingSymbol(), shared.RenderWarning("Delete backup "+name+"?"))

	if bundle, ok := savebundle.Find(m.lists[paneBackups], name); ok {
		fmt.Fprintf(&builder, "Level %d • %s\n", bundle.DisplayLevel(), shared.FormatPlayers(bundle.Players))
	}

	builder.WriteString("This cannot be undone.")

	return shared.ModalStyle().Render(builder.String())
}
