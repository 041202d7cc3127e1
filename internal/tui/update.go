package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/repo-saves/internal/controller"
	"github.com/joe/repo-saves/internal/tui/shared"
)

const inputWidthOverhead = 8

// Init implements tea.Model
func (m *AppModel) Init() tea.Cmd {
	return shared.TickCmd()
}

// Update implements tea.Model
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.dirInput.SetWidth(msg.Width - inputWidthOverhead)

		return m, nil

	case shared.TickMsg:
		m.sync()
		return m, shared.TickCmd()

	case tea.FocusMsg:
		// Only a real transition from unfocused rescans.
		if !m.focused {
			m.focused = true
			m.events.Send(controller.Refresh{})
		}

		return m, nil

	case tea.BlurMsg:
		m.focused = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.editing != editNone {
		return m, m.dirInput.Update(msg)
	}

	return m, nil
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.hint = ""

	if msg.String() == shared.KeyCtrlC {
		return m, m.quit()
	}

	if m.editing != editNone {
		return m, m.handleEditKey(msg)
	}

	if kind, name := m.pendingConfirmation(); kind != confirmNone {
		m.handleConfirmKey(msg, kind, name)
		return m, nil
	}

	return m, m.handleBrowseKey(msg)
}

func (m *AppModel) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.SwitchPane):
		m.pane = (m.pane + 1) % paneCount
	case key.Matches(msg, m.keys.Backup):
		m.backup()
	case key.Matches(msg, m.keys.Restore):
		m.requestOnBackup(confirmRestore, func(name string) controller.Event { return controller.RestoreRequest{Name: name} })
	case key.Matches(msg, m.keys.Delete):
		m.requestOnBackup(confirmDelete, func(name string) controller.Event { return controller.DeleteRequest{Name: name} })
	case key.Matches(msg, m.keys.Refresh):
		m.events.Send(controller.Refresh{})
	case key.Matches(msg, m.keys.SaveDir):
		return m.startEditing(editSaveDir)
	case key.Matches(msg, m.keys.BackupDir):
		return m.startEditing(editBackupDir)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return nil
}

func (m *AppModel) handleConfirmKey(msg tea.KeyMsg, kind confirmKind, name string) {
	switch {
	case key.Matches(msg, m.confirmKeys.Yes):
		if kind == confirmRestore {
			m.events.Send(controller.RestoreConfirm{Name: name})
		} else {
			m.events.Send(controller.DeleteConfirm{Name: name})
		}
	case key.Matches(msg, m.confirmKeys.No):
		if kind == confirmRestore {
			m.events.Send(controller.RestoreCancel{})
		} else {
			m.events.Send(controller.DeleteCancel{})
		}
	default:
		return
	}

	m.answered[kind] = name
}

func (m *AppModel) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		dir := m.dirInput.Value()
		if dir != "" {
			if m.editing == editSaveDir {
				m.events.Send(controller.UpdateSaveDirectory{Dir: dir})
			} else {
				m.events.Send(controller.UpdateBackupDirectory{Dir: dir})
			}
		}

		m.stopEditing()

		return nil

	case "esc":
		if m.dirInput.CompletionsVisible() {
			m.dirInput.HideCompletions()
		} else {
			m.stopEditing()
		}

		return nil
	}

	return m.dirInput.Update(msg)
}

func (m *AppModel) startEditing(target editTarget) tea.Cmd {
	m.editing = target

	if target == editSaveDir {
		return m.dirInput.Start("Game save directory", m.snapshot.SaveDirectory)
	}

	return m.dirInput.Start("Backup directory", m.snapshot.BackupDirectory)
}

func (m *AppModel) stopEditing() {
	m.editing = editNone
	m.dirInput.Stop()
}

func (m *AppModel) moveCursor(delta int) {
	n := len(m.lists[m.pane])
	if n == 0 {
		return
	}

	m.cursor[m.pane] = max(min(m.cursor[m.pane]+delta, n-1), 0)
}

func (m *AppModel) backup() {
	if m.pane != paneGame {
		m.hint = "select a game save to back up"
		return
	}

	bundle, ok := m.selectedIn(paneGame)
	if !ok {
		m.hint = "no game saves found"
		return
	}

	m.events.Send(controller.Backup{Name: bundle.Name})
}

func (m *AppModel) requestOnBackup(kind confirmKind, event func(name string) controller.Event) {
	if m.pane != paneBackups {
		m.hint = "select a backup first"
		return
	}

	bundle, ok := m.selectedIn(paneBackups)
	if !ok {
		m.hint = "no backups found"
		return
	}

	// A fresh request may reuse the name of one answered earlier.
	m.answered[kind] = ""
	m.events.Send(event(bundle.Name))
}

func (m *AppModel) quit() tea.Cmd {
	m.quitting = true
	m.events.Send(controller.Exit{})

	return tea.Quit
}
