package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Prev    key.Binding
	Next    key.Binding
	Up      key.Binding
	Down    key.Binding
	Week    key.Binding
	Month   key.Binding
	Quarter key.Binding
	Cycle   key.Binding
	Today   key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Day     key.Binding
	Reload  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous period"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next period"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Week: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "week"),
		),
		Month: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "month"),
		),
		Quarter: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "quarter"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next unit"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete/undo"),
		),
		Day: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete day"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Prev, m.keys.Next, m.keys.Edit, m.keys.Delete, m.keys.Help, m.keys.Quit}
}

func (m Model) FullHelp() [][]key.Binding {
	navigation := []key.Binding{m.keys.Prev, m.keys.Next, m.keys.Up, m.keys.Down, m.keys.Today}
	units := []key.Binding{m.keys.Week, m.keys.Month, m.keys.Quarter, m.keys.Cycle}
	actions := []key.Binding{m.keys.Edit, m.keys.Delete, m.keys.Day, m.keys.Reload}
	global := []key.Binding{m.keys.Help, m.keys.Quit}
	return [][]key.Binding{navigation, units, actions, global}
}
