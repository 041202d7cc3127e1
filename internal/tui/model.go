// Package tui is the interactive front end. It never touches the filesystem
// for save data: it polls the application state and sends events to the
// controller.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/spf13/afero"

	"github.com/joe/repo-saves/internal/controller"
	"github.com/joe/repo-saves/internal/savebundle"
	"github.com/joe/repo-saves/internal/state"
)

// Sender delivers events to the controller.
type Sender interface {
	Send(event controller.Event)
}

type pane int

const (
	paneGame pane = iota
	paneBackups
	paneCount
)

type editTarget int

const (
	editNone editTarget = iota
	editSaveDir
	editBackupDir
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmRestore
	confirmDelete
	confirmCount
)

// AppModel is the top-level bubbletea model.
type AppModel struct {
	reader state.Reader
	events Sender

	keys        keyMap
	confirmKeys confirmKeys
	help        help.Model
	dirInput    dirInput

	snapshot state.AppState
	lists    [paneCount][]savebundle.SaveBundle
	cursor   [paneCount]int
	pane     pane
	editing  editTarget

	// answered holds, per kind, the name of the confirmation the user already
	// answered. That dialog stays hidden while the state still asks for it.
	answered [confirmCount]string
	hint     string
	focused  bool
	quitting bool

	width  int
	height int
}

// NewAppModel creates the model. fsys is used only for directory completion.
func NewAppModel(reader state.Reader, events Sender, fsys afero.Fs) *AppModel {
	m := &AppModel{
		reader:      reader,
		events:      events,
		keys:        newKeyMap(),
		confirmKeys: newConfirmKeys(),
		help:        help.New(),
		dirInput:    newDirInput(fsys),
		focused:     true,
	}

	m.load(reader.Snapshot())

	return m
}

// Snapshot returns the state the view was last rendered from.
func (m *AppModel) Snapshot() state.AppState {
	return m.snapshot
}

// sync re-reads the state and rebuilds the lists when it changed.
func (m *AppModel) sync() {
	snap := m.reader.Snapshot()
	if snap.Revision == m.snapshot.Revision {
		return
	}

	m.load(snap)
}

func (m *AppModel) load(snap state.AppState) {
	var selected [paneCount]string

	for p := range paneCount {
		if bundle, ok := m.selectedIn(p); ok {
			selected[p] = bundle.Name
		}
	}

	m.snapshot = snap
	m.lists[paneGame] = savebundle.SortByName(snap.GameSaveBundles)
	m.lists[paneBackups] = savebundle.SortByName(snap.BackupSaveBundles)

	for p := range paneCount {
		m.cursor[p] = keepSelection(m.lists[p], selected[p], m.cursor[p])
	}

	for kind := confirmRestore; kind < confirmCount; kind++ {
		if m.pendingName(kind) != m.answered[kind] {
			m.answered[kind] = ""
		}
	}
}

func (m *AppModel) pendingName(kind confirmKind) string {
	switch kind {
	case confirmRestore:
		return m.snapshot.ConfirmRestoreBackupName
	case confirmDelete:
		return m.snapshot.ConfirmBackupDeletionName
	case confirmNone, confirmCount:
	}

	return ""
}

// keepSelection returns the index of name in bundles, or the old cursor
// clamped to the new length.
func keepSelection(bundles []savebundle.SaveBundle, name string, cursor int) int {
	for i, bundle := range bundles {
		if name != "" && bundle.Name == name {
			return i
		}
	}

	return max(min(cursor, len(bundles)-1), 0)
}

func (m *AppModel) selectedIn(p pane) (savebundle.SaveBundle, bool) {
	list := m.lists[p]
	if len(list) == 0 {
		return savebundle.SaveBundle{}, false
	}

	return list[m.cursor[p]], true
}

// pendingConfirmation returns the dialog to show, restore first.
func (m *AppModel) pendingConfirmation() (confirmKind, string) {
	for kind := confirmRestore; kind < confirmCount; kind++ {
		if name := m.pendingName(kind); name != "" && name != m.answered[kind] {
			return kind, name
		}
	}

	return confirmNone, ""
}
