package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all key bindings for the dashboard.
type keyMap struct {
	Quit     key.Binding
	Refresh  key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Search   key.Binding
	Escape   key.Binding
	Help     key.Binding
	Delete   key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	SortCol1 key.Binding
	SortCol2 key.Binding
	SortCol3 key.Binding
	SortCol4 key.Binding
	SortCol5 key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	CursorUp key.Binding
	CursorDn key.Binding
}

// keys is the global key map.
var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh now"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next window"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev window"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete node"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n", "cancel"),
	),
	SortCol1: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "sort col 1")),
	SortCol2: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "sort col 2")),
	SortCol3: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "sort col 3")),
	SortCol4: key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "sort col 4")),
	SortCol5: key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "sort col 5")),
	PrevPage: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "prev page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "next page"),
	),
	CursorUp: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑", "cursor up"),
	),
	CursorDn: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓", "cursor down"),
	),
}

// helpText is the full help string displayed in the footer when help is toggled on.
const helpText = "q: quit  r: refresh  tab: cycle window  1-5: sort  /: search  ↑↓: select  d: delete node  ?: help"
