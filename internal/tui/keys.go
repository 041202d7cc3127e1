package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings of the browse view. It implements help.KeyMap.
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	SwitchPane key.Binding
	Backup     key.Binding
	Restore    key.Binding
	Delete     key.Binding
	Refresh    key.Binding
	SaveDir    key.Binding
	BackupDir  key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// confirmKeys answer a confirmation dialog.
type confirmKeys struct {
	Yes key.Binding
	No  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		SwitchPane: key.NewBinding(
			key.WithKeys("tab", "left", "right", "h", "l"),
			key.WithHelp("tab", "switch list"),
		),
		Backup: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "back up save"),
		),
		Restore: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restore backup"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "x", "delete"),
			key.WithHelp("d", "delete backup"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("f5", "ctrl+r"),
			key.WithHelp("f5", "rescan"),
		),
		SaveDir: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save dir"),
		),
		BackupDir: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "backup dir"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func newConfirmKeys() confirmKeys {
	return confirmKeys{
		Yes: key.NewBinding(
			key.WithKeys("y", "Y", "enter"),
			key.WithHelp("y", "yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "no"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Backup, k.Restore, k.Delete, k.SwitchPane, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.SwitchPane},
		{k.Backup, k.Restore, k.Delete},
		{k.Refresh, k.SaveDir, k.BackupDir},
		{k.Help, k.Quit},
	}
}

// ShortHelp implements help.KeyMap.
func (k confirmKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No}
}

// FullHelp implements help.KeyMap.
func (k confirmKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
