package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit         key.Binding
	ForceQuit    key.Binding
	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	JumpForward  key.Binding
	JumpBackward key.Binding
	Home         key.Binding
	End          key.Binding
	SortName     key.Binding
	SortDate     key.Binding
	Enter        key.Binding
	Parent       key.Binding
	Refresh      key.Binding
	Shrink       key.Binding
	Grow         key.Binding
	Save         key.Binding
	Delete       key.Binding
	Open         key.Binding
	Space        key.Binding
	ScrollUp     key.Binding
	Help         key.Binding
	Converter    key.Binding

	Confirm key.Binding
	Cancel  key.Binding

	Next key.Binding
	Prev key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:         key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q/esc", "quit")),
		ForceQuit:    key.NewBinding(key.WithKeys("ctrl+c")),
		Up:           key.NewBinding(key.WithKeys("k", "up", "left"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("j", "down", "right"), key.WithHelp("↓/j", "down")),
		PageUp:       key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn", "page down")),
		JumpForward:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "jump forward")),
		JumpBackward: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "jump back")),
		Home:         key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first")),
		End:          key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last")),
		SortName:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "sort by name")),
		SortDate:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "sort by date")),
		Enter:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open directory")),
		Parent:       key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "parent")),
		Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Shrink:       key.NewBinding(key.WithKeys("["), key.WithHelp("[", "divider left")),
		Grow:         key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "divider right")),
		Save:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save ascii")),
		Delete:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Open:         key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in file manager")),
		Space:        key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "scroll/slideshow")),
		ScrollUp:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "scroll up")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Converter:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "cycle converter")),

		Confirm: key.NewBinding(key.WithKeys("y", "Y")),
		Cancel:  key.NewBinding(key.WithKeys("n", "N", "esc")),

		Next: key.NewBinding(key.WithKeys("right")),
		Prev: key.NewBinding(key.WithKeys("left")),
	}
}
